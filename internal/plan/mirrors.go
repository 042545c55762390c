package plan

// ResolveMirrors maps every mirror alias to its non-mirror target.
//
// Mirror chains (a mirror pointing at another mirror) are rejected
// rather than flattened: a two-level chain is ambiguous about which
// connection the caller intended to share, and accepting it would let
// a later configuration edit silently change routing. A mirror must
// point directly at a physical alias.
func ResolveMirrors(specs map[string]Spec) (map[string]string, error) {
	mirrors := make(map[string]string)
	for alias, s := range specs {
		if s.Mirror == "" {
			continue
		}
		if alias == s.Mirror {
			return nil, configErr("alias mirrors itself", alias)
		}
		target, ok := specs[s.Mirror]
		if !ok {
			return nil, configErr("mirror target does not exist", s.Mirror)
		}
		if target.Mirror != "" {
			return nil, configErr("mirror chains are not allowed", alias, s.Mirror)
		}
		mirrors[alias] = s.Mirror
	}
	return mirrors, nil
}
