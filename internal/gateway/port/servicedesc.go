package port

import (
	"context"

	"google.golang.org/grpc"

	"github.com/aelexs/realtime-messaging-platform/pkg/protocol"
)

// RegisterRegistrationService registers the core session-lifecycle RPCs
// (CreateSession, GetSession, SendCode, CheckCode, Commit) on srv, backed by
// h. In place of a generated *_grpc.pb.go file (no protoc in this
// environment — see SPEC_FULL.md's Open Question), the grpc.ServiceDesc is
// hand-written here, mirroring the shape grpc-go's protoc-gen-go-grpc
// would otherwise emit.
func RegisterRegistrationService(srv grpc.ServiceRegistrar, h *RegistrationHandler) {
	srv.RegisterService(&registrationServiceDesc, h)
}

// RegisterOperatorService registers the operator console's RPCs
// (OperatorLogin, OperatorLogout, ValidateCredentials) on srv, backed by h.
func RegisterOperatorService(srv grpc.ServiceRegistrar, h *OperatorHandler) {
	srv.RegisterService(&operatorServiceDesc, h)
}

var registrationServiceDesc = grpc.ServiceDesc{
	ServiceName: "registrationgateway.RegistrationService",
	HandlerType: (*RegistrationHandler)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateSession", Handler: createSessionHandler},
		{MethodName: "GetSession", Handler: getSessionHandler},
		{MethodName: "SendCode", Handler: sendCodeHandler},
		{MethodName: "CheckCode", Handler: checkCodeHandler},
		{MethodName: "Commit", Handler: commitHandler},
	},
	Metadata: "registrationgateway/registration.proto",
}

var operatorServiceDesc = grpc.ServiceDesc{
	ServiceName: "registrationgateway.OperatorService",
	HandlerType: (*OperatorHandler)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "OperatorLogin", Handler: operatorLoginHandler},
		{MethodName: "OperatorLogout", Handler: operatorLogoutHandler},
		{MethodName: "ValidateCredentials", Handler: validateCredentialsHandler},
	},
	Metadata: "registrationgateway/operator.proto",
}

func createSessionHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(protocol.CreateSessionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*RegistrationHandler).CreateSession(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/registrationgateway.RegistrationService/CreateSession"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*RegistrationHandler).CreateSession(ctx, req.(*protocol.CreateSessionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func getSessionHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(protocol.GetSessionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*RegistrationHandler).GetSession(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/registrationgateway.RegistrationService/GetSession"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*RegistrationHandler).GetSession(ctx, req.(*protocol.GetSessionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func sendCodeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(protocol.SendCodeRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*RegistrationHandler).SendCode(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/registrationgateway.RegistrationService/SendCode"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*RegistrationHandler).SendCode(ctx, req.(*protocol.SendCodeRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func checkCodeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(protocol.CheckCodeRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*RegistrationHandler).CheckCode(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/registrationgateway.RegistrationService/CheckCode"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*RegistrationHandler).CheckCode(ctx, req.(*protocol.CheckCodeRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func commitHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(protocol.CommitRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*RegistrationHandler).Commit(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/registrationgateway.RegistrationService/Commit"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*RegistrationHandler).Commit(ctx, req.(*protocol.CommitRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func operatorLoginHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(protocol.OperatorLoginRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*OperatorHandler).OperatorLogin(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/registrationgateway.OperatorService/OperatorLogin"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*OperatorHandler).OperatorLogin(ctx, req.(*protocol.OperatorLoginRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func operatorLogoutHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(protocol.OperatorLogoutRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*OperatorHandler).OperatorLogout(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/registrationgateway.OperatorService/OperatorLogout"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*OperatorHandler).OperatorLogout(ctx, req.(*protocol.OperatorLogoutRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func validateCredentialsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(protocol.ValidateCredentialsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*OperatorHandler).ValidateCredentials(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/registrationgateway.OperatorService/ValidateCredentials"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*OperatorHandler).ValidateCredentials(ctx, req.(*protocol.ValidateCredentialsRequest))
	}
	return interceptor(ctx, in, info, handler)
}
