package scope

import (
	"fmt"
	"net"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	defaultOutBufferSize = 10

	serviceName     = "radarview.scope.Scope"
	getFramesMethod = "/" + serviceName + "/GetFrames"
)

type frameStreamer interface {
	GetFrames(*emptypb.Empty, grpc.ServerStream) error
}

// scopeServiceDesc describes the scope service: a single server streaming method that
// returns every frame as a google.protobuf.Struct.
var scopeServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*frameStreamer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "GetFrames",
			Handler:       getFramesHandler,
			ServerStreams: true,
		},
	},
	Metadata: "radarview/scope.proto",
}

func getFramesHandler(srv any, stream grpc.ServerStream) error {
	request := new(emptypb.Empty)
	if err := stream.RecvMsg(request); err != nil {
		return err
	}
	return srv.(frameStreamer).GetFrames(request, stream)
}

type grpcServer struct {
	address  *net.TCPAddr
	listener net.Listener
	server   *grpc.Server
	lock     sync.Mutex

	outBufferSize int
	in            chan *structpb.Struct
	register      chan chan *structpb.Struct
	out           []chan *structpb.Struct
	shutdown      chan struct{}
}

func newGRPCServer(address string, outBufferSize int) (*grpcServer, error) {
	result := &grpcServer{
		outBufferSize: outBufferSize,
		in:            make(chan *structpb.Struct),
		register:      make(chan chan *structpb.Struct),
		shutdown:      make(chan struct{}),
	}

	localAddress, err := net.ResolveTCPAddr("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve address %s: %w", address, err)
	}
	result.address = localAddress

	return result, nil
}

func (s *grpcServer) run() {
	for {
		select {
		case <-s.shutdown:
			for _, out := range s.out {
				close(out)
			}
			s.out = nil
			return
		case out := <-s.register:
			s.out = append(s.out, out)
		case frame := <-s.in:
			s.sendFrameToStreams(frame)
		}
	}
}

// sendFrameToStreams closes and removes every stream that cannot keep up.
func (s *grpcServer) sendFrameToStreams(frame *structpb.Struct) {
	active := s.out[:0]
	for _, out := range s.out {
		select {
		case out <- frame:
			active = append(active, out)
		default:
			close(out)
		}
	}
	clear(s.out[len(active):])
	s.out = active
}

func (s *grpcServer) getFrameStream() chan *structpb.Struct {
	result := make(chan *structpb.Struct, s.outBufferSize)
	select {
	case s.register <- result:
	case <-s.shutdown:
		close(result)
	}
	return result
}

// Listen binds the server to its address.
func (s *grpcServer) Listen() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.listener != nil {
		return ErrAlreadyStarted
	}

	listener, err := net.Listen("tcp", s.address.String())
	if err != nil {
		return fmt.Errorf("cannot listen on address %s: %w", s.address, err)
	}
	s.listener = listener
	s.server = grpc.NewServer(grpc.ChainStreamInterceptor(tracingStreamInterceptor()))
	s.server.RegisterService(&scopeServiceDesc, s)

	return nil
}

// Serve blocks until the server is stopped.
func (s *grpcServer) Serve() error {
	s.lock.Lock()
	server, listener := s.server, s.listener
	s.lock.Unlock()
	if server == nil {
		return fmt.Errorf("server is not listening")
	}

	go s.run()

	err := server.Serve(listener)
	close(s.shutdown)
	return err
}

// Start listens and serves until the server is stopped.
func (s *grpcServer) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

func (s *grpcServer) Addr() net.Addr {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *grpcServer) Stop() {
	s.lock.Lock()
	server := s.server
	s.server = nil
	s.lock.Unlock()

	if server == nil {
		return
	}
	server.Stop()
}

func (s *grpcServer) GetFrames(_ *emptypb.Empty, stream grpc.ServerStream) error {
	frames := s.getFrameStream()
	for {
		select {
		case frame, open := <-frames:
			if !open {
				return nil
			}
			if err := stream.SendMsg(frame); err != nil {
				return err
			}
		case <-stream.Context().Done():
			return nil
		}
	}
}

// SendFrame hands the frame to all connected streams. It returns false if the server is not running.
func (s *grpcServer) SendFrame(frame *structpb.Struct) bool {
	select {
	case <-s.shutdown:
		return false
	default:
	}

	select {
	case s.in <- frame:
		return true
	case <-s.shutdown:
		return false
	}
}
