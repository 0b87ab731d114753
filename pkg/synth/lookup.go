package synth

import "strings"

// =============================================================================
// Node Lookup - Layered Target Resolution
// =============================================================================

// nodeIndex provides the exact lookups built up during emission. Loose
// strategies (suffix, label, substring) scan the node list in emission order
// instead, so ties always break toward the earliest-emitted node.
type nodeIndex struct {
	byID     map[string]int    // node id → slot in the node list
	nameToID map[string]string // declared bare name → node id, first emission wins
}

func newNodeIndex() *nodeIndex {
	return &nodeIndex{
		byID:     map[string]int{},
		nameToID: map[string]string{},
	}
}

func (ix *nodeIndex) add(id string, slot int, declaredName string) {
	ix.byID[id] = slot
	if declaredName == "" {
		return
	}
	if _, taken := ix.nameToID[declaredName]; !taken {
		ix.nameToID[declaredName] = id
	}
}

// resolveTarget locates a node for a diversion target name. Precedence:
// exact id, id suffix (the name after a '/' or '-' boundary at the end),
// label equality, then substring containment over id and label. The first
// strategy that yields a match wins; within a strategy the earliest-emitted
// node wins.
//
// When loose is set and nothing else matched, a last-resort pass matches
// keyword fragments of the target name against node ids. Substring and
// fragment matching are known fragilities; callers log what they resolve.
func (b *builder) resolveTarget(name string, loose bool) (string, bool) {
	if name == "" {
		return "", false
	}
	if _, ok := b.index.byID[name]; ok {
		return name, true
	}

	for i := range b.nodes {
		if hasNameSuffix(b.nodes[i].ID, name) {
			return b.nodes[i].ID, true
		}
	}
	for i := range b.nodes {
		if b.nodes[i].Label == name {
			return b.nodes[i].ID, true
		}
	}
	for i := range b.nodes {
		if strings.Contains(b.nodes[i].ID, name) || strings.Contains(b.nodes[i].Label, name) {
			return b.nodes[i].ID, true
		}
	}

	if loose {
		return b.resolveLoose(name)
	}
	return "", false
}

// resolveRouterTarget locates the target of a pending router diversion:
// exact id, then the declared-name index, then id suffix.
func (b *builder) resolveRouterTarget(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	if _, ok := b.index.byID[name]; ok {
		return name, true
	}
	if id, ok := b.index.nameToID[name]; ok {
		return id, true
	}

	for i := range b.nodes {
		if hasNameSuffix(b.nodes[i].ID, name) {
			return b.nodes[i].ID, true
		}
	}
	return "", false
}

// hasNameSuffix reports whether id ends with name preceded by an id
// separator. '/' joins a scope to the name it owns; '-' additionally lets a
// partial name match the tail of a longer hyphenated one.
func hasNameSuffix(id, name string) bool {
	return strings.HasSuffix(id, "/"+name) || strings.HasSuffix(id, "-"+name)
}

// resolveLoose matches keyword fragments of the target name against node
// ids: the name is split on common separators and any fragment of four or
// more characters that appears in an id counts as a hit.
func (b *builder) resolveLoose(name string) (string, bool) {
	tokens := splitTokens(name)
	if len(tokens) == 0 {
		return "", false
	}
	for i := range b.nodes {
		id := strings.ToLower(b.nodes[i].ID)
		for _, tok := range tokens {
			if strings.Contains(id, tok) {
				return b.nodes[i].ID, true
			}
		}
	}
	return "", false
}

// splitTokens breaks a target name into lowercase fragments of length >= 4.
func splitTokens(name string) []string {
	fields := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return r == '-' || r == '_' || r == '.' || r == ' '
	})
	var tokens []string
	for _, f := range fields {
		if len(f) >= 4 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
