package minecraft

import "encoding/json"

// Arguments holds the jvm & game argument fragments of a version
type Arguments struct {
	Game []Argument `json:"game"`
	JVM  []Argument `json:"jvm"`
}

// Argument is one argument fragment. It expands to zero or more strings
// depending on its rules.
type Argument struct {
	// Value is the actual argument (one or multiple strings)
	Value stringSlice `json:"value"`
	Rules Rules       `json:"rules"`
}

// UnmarshalJSON is needed because an argument sometimes is just a string
func (a *Argument) UnmarshalJSON(data []byte) (err error) {
	if len(data) != 0 && data[0] == '{' {
		type plain Argument
		var arg plain
		if err := json.Unmarshal(data, &arg); err != nil {
			return err
		}
		*a = Argument(arg)
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	a.Value = []string{str}
	a.Rules = nil
	return nil
}

// ActiveArguments expands the fragments that are allowed for ctx, in declaration order
func ActiveArguments(args []Argument, ctx RuleContext) []string {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		if !arg.Rules.Allowed(ctx) {
			continue
		}
		out = append(out, arg.Value...)
	}
	return out
}
