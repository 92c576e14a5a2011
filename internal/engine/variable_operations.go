package engine

import (
	"slices"
	"strconv"
	"strings"
)

// Sets are stored as newline-joined, de-duplicated elements in insertion order

// splitSet returns the elements of a stored set
func splitSet(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, elem := range strings.Split(value, "\n") {
		if elem != "" && !slices.Contains(out, elem) {
			out = append(out, elem)
		}
	}
	return out
}

// joinSet renders elements as a stored set
func joinSet(elems []string) string {
	return strings.Join(elems, "\n")
}

// setAdd appends the values that are not already in the set
func setAdd(value string, add []string) string {
	elems := splitSet(value)
	for _, a := range add {
		if a != "" && !slices.Contains(elems, a) {
			elems = append(elems, a)
		}
	}
	return joinSet(elems)
}

// setRemove drops the given values from the set
func setRemove(value string, remove []string) string {
	elems := splitSet(value)
	elems = slices.DeleteFunc(elems, func(e string) bool {
		return slices.Contains(remove, e)
	})
	return joinSet(elems)
}

// intAdd adds delta to value as integers. An empty value counts as zero;
// any parse failure leaves value unchanged.
func intAdd(value, delta string, sign int) string {
	current := strings.TrimSpace(value)
	if current == "" {
		current = "0"
	}
	a, err := strconv.ParseInt(current, 10, 64)
	if err != nil {
		return value
	}
	b, err := strconv.ParseInt(strings.TrimSpace(delta), 10, 64)
	if err != nil {
		return value
	}
	return strconv.FormatInt(a+int64(sign)*b, 10)
}

// truthy is the value of an if with no predicate
func truthy(value string) bool {
	v := strings.TrimSpace(value)
	return v != "" && v != "0" && !strings.EqualFold(v, "false")
}
