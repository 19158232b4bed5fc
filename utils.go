package main

func StringInSlice(s string, slice []string) bool {
	for _, x := range slice {
		if x == s {
			return true
		}
	}
	return false
}

// distinct values in first-seen order
func DedupeStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	retval := []string{}
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		retval = append(retval, v)
	}
	return retval
}
