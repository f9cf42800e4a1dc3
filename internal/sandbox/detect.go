package sandbox

import "os"

// Detect reports whether d.Var is present in the environment seen through
// lookup with a value not listed in d.FalseValues. A nil lookup reads the
// process environment.
func Detect(lookup LookupFunc, d Detection) bool {
	if d.Var == "" {
		return false
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}

	value, ok := lookup(d.Var)
	if !ok {
		return false
	}
	for _, f := range d.FalseValues {
		if value == f {
			return false
		}
	}
	return true
}

// MapLookup adapts a map to a LookupFunc.
func MapLookup(env map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}
