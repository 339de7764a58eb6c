package grpcutil

import (
	"fmt"
	"strings"

	"go.ytsaurus.tech/library/go/core/xerrors"
)

// MethodName is the parsed identity of a gRPC method.
//
// A wire-level method path has the form "/<package>.<Service>/<Method>";
// the package part is absent for proto files without a package clause.
type MethodName struct {
	Package string
	Service string
	Method  string
}

func (m MethodName) String() string {
	return fmt.Sprintf("MethodName(package=%q, service=%q, method=%q)", m.Package, m.Service, m.Method)
}

// FullyQualifiedService returns the service name prefixed with the package,
// e.g. "foo.bar.SearchService" for "/foo.bar.SearchService/Search".
func (m MethodName) FullyQualifiedService() string {
	if m.Package == "" {
		return m.Service
	}
	return m.Package + "." + m.Service
}

// ParseMethodName parses a full method path, e.g. "/foo.bar.SearchService/Search",
// as delivered in grpc.UnaryServerInfo.FullMethod and grpc.StreamServerInfo.FullMethod.
func ParseMethodName(fullMethod string) (MethodName, error) {
	parts := strings.SplitN(fullMethod, "/", 3)
	if len(parts) != 3 || parts[0] != "" || parts[1] == "" || parts[2] == "" {
		return MethodName{}, xerrors.Errorf("method path %q is not of the form /package.Service/Method", fullMethod)
	}
	packageAndService, method := parts[1], parts[2]
	pkg, service := "", packageAndService
	if idx := strings.LastIndex(packageAndService, "."); idx >= 0 {
		pkg, service = packageAndService[:idx], packageAndService[idx+1:]
	}
	return MethodName{Package: pkg, Service: service, Method: method}, nil
}
