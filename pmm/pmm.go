package pmm

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/micego/util"
)

var (
	// ErrTooFewObservations is returned when fewer than two observed rows are
	// available to fit on.
	ErrTooFewObservations = errors.New("pmm: fewer than 2 observed rows")

	// ErrRankDeficient is returned when the design matrix has no usable least
	// squares solution.
	ErrRankDeficient = errors.New("pmm: rank-deficient design matrix")
)

// Options holds predictive mean matching parameters.
type Options struct {
	// Donors is the size of the donor pool per missing row. One donor is drawn
	// uniformly from the pool. Ties on predicted distance break toward the
	// lower observed row position.
	Donors int
}

// DefaultOptions is the default predictive mean matching configuration.
var DefaultOptions = Options{
	Donors: 5,
}

// Model performs predictive mean matching imputation for a single column.
type Model struct {
	opts Options
}

// New creates a Model with the given options.
func New(optFns ...func(o *Options)) (*Model, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Donors < 1 {
		return nil, fmt.Errorf("pmm: donors must be positive, got %d", opts.Donors)
	}
	return &Model{opts: opts}, nil
}

// Donors returns the configured donor pool size.
func (m *Model) Donors() int { return m.opts.Donors }

// Impute fits yObs ~ xObs by least squares, predicts for the observed and
// missing design rows, and returns one donor-matched value per missing row.
//
// xObs is nObs×p, xMis is nMis×p (nil when the column has no missing rows),
// and yObs has length nObs. The caller is responsible for including an
// intercept column. Values drawn by rng determine the donor picked from each
// pool; nothing else is random.
func (m *Model) Impute(rng *util.RNG, xObs, xMis mat.Matrix, yObs []float64) ([]float64, error) {
	nObs, p := xObs.Dims()
	nMis, pMis := 0, p
	if xMis != nil {
		nMis, pMis = xMis.Dims()
	}
	if pMis != p {
		return nil, fmt.Errorf("pmm: design width mismatch: observed %d, missing %d", p, pMis)
	}
	if len(yObs) != nObs {
		return nil, fmt.Errorf("pmm: response length %d does not match %d observed rows", len(yObs), nObs)
	}
	if nObs < 2 {
		return nil, ErrTooFewObservations
	}
	if nMis == 0 {
		return nil, nil
	}

	beta, err := solveLeastSquares(xObs, yObs)
	if err != nil {
		return nil, err
	}

	var predObs, predMis mat.VecDense
	predObs.MulVec(xObs, beta)
	predMis.MulVec(xMis, beta)

	k := m.opts.Donors
	if k > nObs {
		k = nObs
	}

	out := make([]float64, nMis)
	pool := make([]int, nObs)
	for i := range nMis {
		nearestDonors(pool, predObs.RawVector().Data, predMis.AtVec(i))
		out[i] = yObs[pool[rng.IntN(k)]]
	}
	return out, nil
}

// solveLeastSquares returns the least squares coefficients of y on x, solved
// through a rank-revealing SVD. A design without full column rank (collinear
// predictors, constant columns) is reported as ErrRankDeficient.
func solveLeastSquares(x mat.Matrix, y []float64) (*mat.VecDense, error) {
	n, p := x.Dims()
	if n < p {
		return nil, ErrRankDeficient
	}

	var svd mat.SVD
	if ok := svd.Factorize(x, mat.SVDThin); !ok {
		return nil, fmt.Errorf("%w: svd did not converge", ErrRankDeficient)
	}

	values := svd.Values(nil)
	tol := float64(n) * values[0] * 1e-14
	rank := 0
	for _, v := range values {
		if v > tol {
			rank++
		}
	}
	if rank < p {
		return nil, ErrRankDeficient
	}

	var beta mat.VecDense
	svd.SolveVecTo(&beta, mat.NewVecDense(n, y), rank)
	return &beta, nil
}
