package jsonschema

// evaluatedItemIndexes collects the array positions some successful
// subschema of schema has looked at.
func evaluatedItemIndexes(v *Validator, instance []any, schema any) map[int]bool {
	out := map[int]bool{}
	m, ok := schema.(map[string]any)
	if !ok {
		return out
	}
	if _, ok := m["items"]; ok {
		for i := range instance {
			out[i] = true
		}
		return out
	}
	for _, resolved := range refTargets(v, m) {
		for i := range evaluatedItemIndexes(v.withResolver(resolved.Resolver), instance, resolved.Contents) {
			out[i] = true
		}
	}
	if prefixItems, ok := AsArray(m["prefixItems"]); ok {
		for i := 0; i < len(prefixItems) && i < len(instance); i++ {
			out[i] = true
		}
	}
	if cond, ok := m["if"]; ok {
		if v.isValidUnder(instance, cond) {
			merge(out, evaluatedItemIndexes(v, instance, cond))
			if then, ok := m["then"]; ok {
				merge(out, evaluatedItemIndexes(v, instance, then))
			}
		} else if otherwise, ok := m["else"]; ok {
			merge(out, evaluatedItemIndexes(v, instance, otherwise))
		}
	}
	for _, keyword := range []string{"contains", "unevaluatedItems"} {
		sub, ok := m[keyword]
		if !ok {
			continue
		}
		for i, item := range instance {
			if v.isValidUnder(item, sub) {
				out[i] = true
			}
		}
	}
	for _, keyword := range []string{"allOf", "oneOf", "anyOf"} {
		subschemas, _ := AsArray(m[keyword])
		for _, sub := range subschemas {
			if v.isValidUnder(instance, sub) {
				merge(out, evaluatedItemIndexes(v, instance, sub))
			}
		}
	}
	return out
}

// evaluatedPropertyKeys collects the object members some successful
// subschema of schema has looked at.
func evaluatedPropertyKeys(v *Validator, instance map[string]any, schema any) map[string]bool {
	out := map[string]bool{}
	m, ok := schema.(map[string]any)
	if !ok {
		return out
	}
	for _, resolved := range refTargets(v, m) {
		for k := range evaluatedPropertyKeys(v.withResolver(resolved.Resolver), instance, resolved.Contents) {
			out[k] = true
		}
	}
	if properties, ok := AsObject(m["properties"]); ok {
		for k := range properties {
			if _, present := instance[k]; present {
				out[k] = true
			}
		}
	}
	for _, keyword := range []string{"additionalProperties", "unevaluatedProperties"} {
		sub, ok := m[keyword]
		if !ok {
			continue
		}
		if b, isBool := sub.(bool); isBool && !b {
			continue
		}
		for k, item := range instance {
			if keyword == "additionalProperties" || v.isValidUnder(item, sub) {
				out[k] = true
			}
		}
	}
	if patterns, ok := AsObject(m["patternProperties"]); ok {
		for k := range instance {
			if matchesAny(patterns, k) {
				out[k] = true
			}
		}
	}
	if deps, ok := AsObject(m["dependentSchemas"]); ok {
		for property, sub := range deps {
			if _, present := instance[property]; present {
				for k := range evaluatedPropertyKeys(v, instance, sub) {
					out[k] = true
				}
			}
		}
	}
	for _, keyword := range []string{"allOf", "oneOf", "anyOf"} {
		subschemas, _ := AsArray(m[keyword])
		for _, sub := range subschemas {
			if v.isValidUnder(instance, sub) {
				for k := range evaluatedPropertyKeys(v, instance, sub) {
					out[k] = true
				}
			}
		}
	}
	if cond, ok := m["if"]; ok {
		var branches []any
		if v.isValidUnder(instance, cond) {
			branches = append(branches, cond)
			if then, ok := m["then"]; ok {
				branches = append(branches, then)
			}
		} else if otherwise, ok := m["else"]; ok {
			branches = append(branches, otherwise)
		}
		for _, branch := range branches {
			for k := range evaluatedPropertyKeys(v, instance, branch) {
				out[k] = true
			}
		}
	}
	return out
}

// refTargets resolves the $ref and $dynamicRef of m, skipping those that do
// not resolve.
func refTargets(v *Validator, m map[string]any) []Resolved {
	var out []Resolved
	if ref, ok := m["$ref"].(string); ok {
		if resolved, err := v.resolver.Lookup(ref); err == nil {
			out = append(out, resolved)
		}
	}
	if ref, ok := m["$dynamicRef"].(string); ok {
		if resolved, err := v.resolver.LookupDynamic(ref); err == nil {
			out = append(out, resolved)
		}
	}
	return out
}

func merge(dst, src map[int]bool) {
	for k := range src {
		dst[k] = true
	}
}
