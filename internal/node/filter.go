package node

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/Mohsinsiddi/rollupdash/internal/rollups"
)

// Params are the by-name arguments of a list call.
type Params map[string]any

func baseParams(app string, limit, offset *uint64) Params {
	p := Params{"application": app}
	if limit != nil {
		p["limit"] = *limit
	}
	if offset != nil {
		p["offset"] = *offset
	}
	return p
}

func setIndex(p Params, key string, v *uint64) {
	if v != nil {
		p[key] = hexutil.EncodeUint64(*v)
	}
}

// ReportFilter narrows cartesi_listReports. Nil fields are left out.
type ReportFilter struct {
	Limit      *uint64
	Offset     *uint64
	EpochIndex *uint64
	InputIndex *uint64
}

// Params builds the request arguments for app.
func (f ReportFilter) Params(app string) Params {
	p := baseParams(app, f.Limit, f.Offset)
	setIndex(p, "epoch_index", f.EpochIndex)
	setIndex(p, "input_index", f.InputIndex)
	return p
}

// OutputFilter narrows cartesi_listOutputs. OutputType takes a type name
// or a raw selector.
type OutputFilter struct {
	Limit          *uint64
	Offset         *uint64
	EpochIndex     *uint64
	InputIndex     *uint64
	OutputType     *string
	VoucherAddress *string
}

// Params builds the request arguments for app.
func (f OutputFilter) Params(app string) (Params, error) {
	p := baseParams(app, f.Limit, f.Offset)
	setIndex(p, "epoch_index", f.EpochIndex)
	setIndex(p, "input_index", f.InputIndex)
	if f.OutputType != nil {
		sel, err := rollups.OutputTypeSelector(*f.OutputType)
		if err != nil {
			return nil, err
		}
		p["output_type"] = sel
	}
	if f.VoucherAddress != nil {
		if !common.IsHexAddress(*f.VoucherAddress) {
			return nil, fmt.Errorf("invalid voucher address %q", *f.VoucherAddress)
		}
		p["voucher_address"] = common.HexToAddress(*f.VoucherAddress).Hex()
	}
	return p, nil
}

// InputFilter narrows cartesi_listInputs.
type InputFilter struct {
	Limit      *uint64
	Offset     *uint64
	EpochIndex *uint64
	Sender     *string
}

// Params builds the request arguments for app.
func (f InputFilter) Params(app string) (Params, error) {
	p := baseParams(app, f.Limit, f.Offset)
	setIndex(p, "epoch_index", f.EpochIndex)
	if f.Sender != nil {
		if !common.IsHexAddress(*f.Sender) {
			return nil, fmt.Errorf("invalid sender address %q", *f.Sender)
		}
		p["sender"] = common.HexToAddress(*f.Sender).Hex()
	}
	return p, nil
}
