package rpc

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"
)

// DialOptions configures a connection to a catalogue server.
type DialOptions struct {
	// TLS enables transport security. Nil means plaintext.
	TLS *tls.Config

	// Token, when set, is sent as a bearer token on every call.
	Token string

	// ConnectTimeout bounds how long Dial waits for the connection to become ready.
	// Defaults to 10s.
	ConnectTimeout time.Duration

	// Extra dial options appended after the defaults.
	Extra []grpc.DialOption
}

// Dial connects to a catalogue server at endpoint and waits for the connection to
// leave the idle state.
func Dial(ctx context.Context, endpoint string, opts DialOptions) (*grpc.ClientConn, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("endpoint cannot be empty")
	}

	var dialOpts []grpc.DialOption

	if opts.TLS != nil {
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(credentials.NewTLS(opts.TLS)))
	} else {
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	dialOpts = append(dialOpts,
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                10 * time.Second,
			Timeout:             5 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(MaxMessageSize), grpc.MaxCallSendMsgSize(MaxMessageSize)),
	)

	if opts.Token != "" {
		dialOpts = append(dialOpts,
			grpc.WithUnaryInterceptor(tokenUnaryInterceptor(opts.Token)),
			grpc.WithStreamInterceptor(tokenStreamInterceptor(opts.Token)),
		)
	}
	dialOpts = append(dialOpts, opts.Extra...)

	conn, err := grpc.NewClient(endpoint, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to catalogue at %s: %w", endpoint, err)
	}

	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	readyCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn.Connect()
	for {
		state := conn.GetState()
		if state == connectivity.Ready {
			return conn, nil
		}
		if state == connectivity.Shutdown {
			return nil, fmt.Errorf("connection to %s shut down", endpoint)
		}
		if !conn.WaitForStateChange(readyCtx, state) {
			conn.Close()
			return nil, fmt.Errorf("connection to %s not ready: state=%s: %w", endpoint, state, readyCtx.Err())
		}
	}
}

func withToken(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
}

func tokenUnaryInterceptor(token string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		return invoker(withToken(ctx, token), method, req, reply, cc, opts...)
	}
}

func tokenStreamInterceptor(token string) grpc.StreamClientInterceptor {
	return func(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string, streamer grpc.Streamer, opts ...grpc.CallOption) (grpc.ClientStream, error) {
		return streamer(withToken(ctx, token), desc, cc, method, opts...)
	}
}
