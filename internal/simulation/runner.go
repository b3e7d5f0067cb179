package simulation

import "fmt"

// BindFunc supplies the runtime handles for the level at position.
type BindFunc func(level string, position int) LevelBinding

// NewRunner builds and returns the controller for kind. An empty grind uses
// the variant default.
func NewRunner(kind Kind, grind GrindSetting, bind BindFunc, opts Options) (Runner, error) {
	if grind == "" {
		grind = DefaultGrind(kind)
	}
	var (
		r   Runner
		err error
	)
	switch kind {
	case KindEspresso:
		r, err = bindController(EspressoVariant(grind), bind, opts)
	case KindMoka:
		r, err = bindController(MokaVariant(grind), bind, opts)
	default:
		return nil, fmt.Errorf("%w: unknown simulation kind %q", ErrConfiguration, kind)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func bindController[L LevelName](v Variant[L], bind BindFunc, opts Options) (*Controller[L], error) {
	bindings := make([]LevelBinding, len(v.Levels))
	for i, spec := range v.Levels {
		bindings[i] = bind(spec.Name.String(), i)
	}
	return NewController(v, bindings, opts)
}
