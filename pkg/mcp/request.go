package mcp

// CallToolRequest is the decoded, schema-validated invocation a tool
// handler receives. Accessors default on absence so optional arguments
// read naturally; required fields are guaranteed present by validation.
type CallToolRequest struct {
	Params CallToolParams
}

// GetArguments returns the raw argument map (never nil).
func (r *CallToolRequest) GetArguments() map[string]any {
	if r.Params.Arguments == nil {
		return map[string]any{}
	}
	return r.Params.Arguments
}

// GetString returns a string argument or the default.
func (r *CallToolRequest) GetString(key, def string) string {
	if v, ok := r.Params.Arguments[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// GetFloat returns a numeric argument or the default. JSON numbers decode
// as float64; integers stored by tests as int are tolerated.
func (r *CallToolRequest) GetFloat(key string, def float64) float64 {
	if v, ok := r.Params.Arguments[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		case int64:
			return float64(n)
		}
	}
	return def
}

// GetInt returns an integer argument or the default. Fractional values
// truncate; validation has already rejected non-integers where the schema
// says "integer".
func (r *CallToolRequest) GetInt(key string, def int) int {
	if v, ok := r.Params.Arguments[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		case int64:
			return int(n)
		}
	}
	return def
}

// GetBool returns a boolean argument or the default.
func (r *CallToolRequest) GetBool(key string, def bool) bool {
	if v, ok := r.Params.Arguments[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// GetStringSlice returns a string-array argument or the default. Decoded
// JSON arrays arrive as []any; native []string is tolerated for
// in-process callers.
func (r *CallToolRequest) GetStringSlice(key string, def []string) []string {
	v, ok := r.Params.Arguments[key]
	if !ok {
		return def
	}
	switch arr := v.(type) {
	case []string:
		return arr
	case []any:
		out := make([]string, 0, len(arr))
		for _, item := range arr {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return def
}

// Has reports whether the argument was supplied at all, letting handlers
// distinguish "absent" from a zero value.
func (r *CallToolRequest) Has(key string) bool {
	_, ok := r.Params.Arguments[key]
	return ok
}

// GetStringMap returns an object argument as string→string, used for
// subprocess environment maps.
func (r *CallToolRequest) GetStringMap(key string) map[string]string {
	v, ok := r.Params.Arguments[key]
	if !ok {
		return nil
	}
	switch m := v.(type) {
	case map[string]string:
		return m
	case map[string]any:
		out := make(map[string]string, len(m))
		for k, item := range m {
			if s, ok := item.(string); ok {
				out[k] = s
			}
		}
		return out
	}
	return nil
}
