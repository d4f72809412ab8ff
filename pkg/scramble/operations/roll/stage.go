package roll

import (
	"github.com/provide-io/pixelroll/pkg/scramble/key"
	"github.com/provide-io/pixelroll/pkg/scramble/matrix"
	"github.com/provide-io/pixelroll/pkg/scramble/operations"
)

func init() {
	operations.Register(NewRowRollStage())
	operations.Register(NewColumnRollStage())
}

// RowRollStage rolls rows with the key's row-roll sequence
type RowRollStage struct {
	operations.BaseStage
}

func NewRowRollStage() *RowRollStage {
	return &RowRollStage{
		BaseStage: operations.BaseStage{
			OpID:   operations.OP_ROW_ROLL,
			OpName: "ROW_ROLL",
		},
	}
}

func (s *RowRollStage) Apply(m *matrix.Matrix, k *key.Key, opts operations.Options) (*matrix.Matrix, error) {
	if err := RollRows(m, k.RowRollKey(), true, opts.Workers); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *RowRollStage) Reverse(m *matrix.Matrix, k *key.Key, opts operations.Options) (*matrix.Matrix, error) {
	if err := RollRows(m, k.RowRollKey(), false, opts.Workers); err != nil {
		return nil, err
	}
	return m, nil
}

// ColumnRollStage rolls columns with col_key
type ColumnRollStage struct {
	operations.BaseStage
}

func NewColumnRollStage() *ColumnRollStage {
	return &ColumnRollStage{
		BaseStage: operations.BaseStage{
			OpID:   operations.OP_COL_ROLL,
			OpName: "COL_ROLL",
		},
	}
}

func (s *ColumnRollStage) Apply(m *matrix.Matrix, k *key.Key, opts operations.Options) (*matrix.Matrix, error) {
	if err := RollColumns(m, k.ColRollKey(), true, opts.Workers); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *ColumnRollStage) Reverse(m *matrix.Matrix, k *key.Key, opts operations.Options) (*matrix.Matrix, error) {
	if err := RollColumns(m, k.ColRollKey(), false, opts.Workers); err != nil {
		return nil, err
	}
	return m, nil
}
