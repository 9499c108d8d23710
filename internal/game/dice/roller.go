package dice

import (
	"sort"

	"go.uber.org/zap"
)

// Roller is the production Randomizer. It draws from a Source and logs every
// roll at debug level.
//
// Roller holds no mutable state and is safe for concurrent use when its
// Source is.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewRoller creates a Roller that rolls with src and logs each roll to logger.
//
// Precondition: src must be non-nil. A nil logger disables roll logging.
func NewRoller(src Source, logger *zap.Logger) *Roller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Roller{src: src, logger: logger}
}

// Roll returns a uniformly distributed value in [1, faces].
//
// Postcondition: returns ErrInvalidDie when faces < 1.
func (r *Roller) Roll(faces int) (int, error) {
	if err := checkFaces(faces); err != nil {
		return 0, err
	}
	v := r.src.Intn(faces) + 1
	r.logger.Debug("die roll", zap.Int("faces", faces), zap.Int("value", v))
	return v, nil
}

// Evaluate rolls every die of expr through rnd and returns the audit result.
//
// Precondition: expr must come from Parse; rnd must be non-nil.
// Postcondition: len(result.Dice) == expr.Count when KeepHighest == 0, or
// expr.KeepHighest otherwise; result.Total() == sum(result.Dice) + result.Modifier.
func Evaluate(expr Expression, rnd Randomizer) (RollResult, error) {
	rolled := make([]int, expr.Count)
	for i := range rolled {
		v, err := rnd.Roll(expr.Sides)
		if err != nil {
			return RollResult{}, err
		}
		rolled[i] = v
	}

	kept := rolled
	if expr.KeepHighest > 0 {
		sorted := make([]int, len(rolled))
		copy(sorted, rolled)
		sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
		kept = sorted[:expr.KeepHighest]
	}

	return RollResult{
		Expression: expr.String(),
		Dice:       kept,
		Modifier:   expr.Modifier,
	}, nil
}

// EvaluateExpr parses expr and evaluates it in a single call.
func EvaluateExpr(expr string, rnd Randomizer) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return Evaluate(e, rnd)
}
