package rafkogym

import (
	"fmt"
	"math"
	"strings"

	"github.com/davids91/rafko-go/rafkonet"
)

// featureRegularisationOperation is a Phase-A terminal contributing a
// weight-decay term (L1 or L2) straight from the weight table: it has no
// graph dependencies since it reads the network's weights directly rather
// than any operation's computed value. Its value carries no lambda or 0.5
// scaling -- the reported dataset-level error's exact-formula invariant
// (raw sum of squares over the regularised layer's weights, divided by
// dataset size) leaves no room for either.
type featureRegularisationOperation struct {
	baseOp
	kind       rafkonet.FeatureGroupKind
	weightIdxs []uint32
}

func newFeatureRegularisationOperation(kind rafkonet.FeatureGroupKind, weightIdxs []uint32) *featureRegularisationOperation {
	return &featureRegularisationOperation{
		baseOp:     baseOp{kind: KindFeatureRegularisation},
		kind:       kind,
		weightIdxs: weightIdxs,
	}
}

func (o *featureRegularisationOperation) Dependencies() []Operation { return nil }

func (o *featureRegularisationOperation) Value(store *BackpropData, network *rafkonet.Network, _ []float64) float64 {
	var sum float64
	for _, wi := range o.weightIdxs {
		w := network.Weights[wi]
		if o.kind == rafkonet.FeatureL1Regularization {
			sum += math.Abs(w)
		} else {
			sum += w * w
		}
	}
	store.SetValue(o.index, sum)
	return sum
}

func (o *featureRegularisationOperation) Derivative(store *BackpropData, network *rafkonet.Network, weightIdx int) float64 {
	var d float64
	for _, wi := range o.weightIdxs {
		if int(wi) != weightIdx {
			continue
		}
		w := network.Weights[wi]
		if o.kind == rafkonet.FeatureL1Regularization {
			d = sign(w)
		} else {
			d = 2 * w
		}
		break
	}
	store.SetDerivative(o.index, weightIdx, d)
	return d
}

func (o *featureRegularisationOperation) KernelExpression() string {
	terms := make([]string, len(o.weightIdxs))
	for i, wi := range o.weightIdxs {
		w := fmt.Sprintf("weights[%d]", wi)
		if o.kind == rafkonet.FeatureL1Regularization {
			terms[i] = fmt.Sprintf("abs(%s)", w)
		} else {
			terms[i] = fmt.Sprintf("(%s * %s)", w, w)
		}
	}
	return fmt.Sprintf("(%s)", strings.Join(terms, " + "))
}

// DerivativeKernelExpression renders the same per-weight-index branch
// Derivative takes at Go runtime (only the member weight matching
// d_w_index contributes) as a ternary chain, since o.weightIdxs is a
// fixed, compile-time-known set.
func (o *featureRegularisationOperation) DerivativeKernelExpression() string {
	expr := "0.0"
	for _, wi := range o.weightIdxs {
		w := fmt.Sprintf("weights[%d]", wi)
		var term string
		if o.kind == rafkonet.FeatureL1Regularization {
			term = fmt.Sprintf("sign(%s)", w)
		} else {
			term = fmt.Sprintf("(2.0 * %s)", w)
		}
		expr = fmt.Sprintf("(d_w_index == %d ? %s : %s)", wi, term, expr)
	}
	return expr
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}
