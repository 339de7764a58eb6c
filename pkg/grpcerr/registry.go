package grpcerr

import (
	"fmt"
	"sort"

	"google.golang.org/grpc/codes"
)

// Kind is a registered failure category: a status code paired with a stable
// default details string. Each non-OK code has exactly one kind; duplicates
// panic at init so collisions are caught at start.
type Kind struct {
	Name           string
	Code           codes.Code
	DefaultDetails string
}

var (
	kindsByCode    = make(map[codes.Code]Kind)
	kindsByDetails = make(map[string]Kind)
)

func register(name string, code codes.Code, defaultDetails string) Kind {
	if code == codes.OK {
		panic("kind with status code OK cannot be registered")
	}
	if existing, ok := kindsByCode[code]; ok {
		panic(fmt.Sprintf("kind %s: status code %s already registered by %s", name, code, existing.Name))
	}
	if existing, ok := kindsByDetails[defaultDetails]; ok {
		panic(fmt.Sprintf("kind %s: default details already registered by %s", name, existing.Name))
	}
	kind := Kind{Name: name, Code: code, DefaultDetails: defaultDetails}
	kindsByCode[code] = kind
	kindsByDetails[defaultDetails] = kind
	return kind
}

// KindOf returns the registered kind for a status code.
func KindOf(code codes.Code) (Kind, bool) {
	kind, ok := kindsByCode[code]
	return kind, ok
}

// All returns every registered kind ordered by status code.
func All() []Kind {
	res := make([]Kind, 0, len(kindsByCode))
	for _, kind := range kindsByCode {
		res = append(res, kind)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Code < res[j].Code
	})
	return res
}
