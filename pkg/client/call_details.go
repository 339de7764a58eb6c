package client

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/metadata"
)

// CallDetails describes an outbound RPC before it leaves the process.
// Interceptors tune the call by passing modified details to the
// continuation; the With* methods copy, so the details one interceptor saw
// are never mutated by another.
type CallDetails struct {
	Method string
	// Timeout bounds the call relative to the moment the continuation is
	// invoked. Zero means the context deadline alone applies.
	Timeout time.Duration
	// Metadata is the full outbound metadata for the call; keys may carry
	// multiple values.
	Metadata     metadata.MD
	Credentials  credentials.PerRPCCredentials
	WaitForReady *bool
	Compressor   string
}

func (d CallDetails) WithMethod(method string) CallDetails {
	d.Method = method
	return d
}

func (d CallDetails) WithTimeout(timeout time.Duration) CallDetails {
	d.Timeout = timeout
	return d
}

// WithMetadata replaces the outbound metadata wholesale.
func (d CallDetails) WithMetadata(md metadata.MD) CallDetails {
	d.Metadata = md
	return d
}

// WithAppendedMetadata copies the metadata and appends the given values.
func (d CallDetails) WithAppendedMetadata(key string, values ...string) CallDetails {
	md := d.Metadata.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Append(key, values...)
	d.Metadata = md
	return d
}

func (d CallDetails) WithCredentials(creds credentials.PerRPCCredentials) CallDetails {
	d.Credentials = creds
	return d
}

func (d CallDetails) WithWaitForReady(waitForReady bool) CallDetails {
	d.WaitForReady = &waitForReady
	return d
}

func (d CallDetails) WithCompressor(compressor string) CallDetails {
	d.Compressor = compressor
	return d
}

func newCallDetails(ctx context.Context, method string) CallDetails {
	details := CallDetails{Method: method}
	if md, ok := metadata.FromOutgoingContext(ctx); ok {
		details.Metadata = md.Copy()
	}
	return details
}

// apply translates the details into the derived context and call options for
// the actual invocation. The returned cancel func is non-nil iff a timeout
// was installed.
func (d CallDetails) apply(ctx context.Context, opts []grpc.CallOption) (context.Context, []grpc.CallOption, context.CancelFunc) {
	if len(d.Metadata) > 0 {
		ctx = metadata.NewOutgoingContext(ctx, d.Metadata)
	}
	var cancel context.CancelFunc
	if d.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
	}
	// clamp the slice so appends never scribble over the caller's options
	callOpts := opts[:len(opts):len(opts)]
	if d.Credentials != nil {
		callOpts = append(callOpts, grpc.PerRPCCredentials(d.Credentials))
	}
	if d.WaitForReady != nil {
		callOpts = append(callOpts, grpc.WaitForReady(*d.WaitForReady))
	}
	if d.Compressor != "" {
		callOpts = append(callOpts, grpc.UseCompressor(d.Compressor))
	}
	return ctx, callOpts, cancel
}
