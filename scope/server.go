package scope

import (
	"log"
	"net"
	"sync"
)

// ScopeServer is a scope that serves frames over a network connection to remote clients.
type ScopeServer struct {
	address string

	server     *grpcServer
	serverLock *sync.Mutex
}

// NewScopeServer creates a new scope server that listens on the given address.
func NewScopeServer(address string) *ScopeServer {
	return &ScopeServer{
		address:    address,
		server:     nil,
		serverLock: &sync.Mutex{},
	}
}

func (s *ScopeServer) Active() bool {
	s.serverLock.Lock()
	defer s.serverLock.Unlock()
	return s.server != nil
}

func (s *ScopeServer) Addr() net.Addr {
	s.serverLock.Lock()
	defer s.serverLock.Unlock()
	if s.server != nil {
		return s.server.Addr()
	}
	return nil
}

// Start binds the server to its address and serves the clients in the background.
func (s *ScopeServer) Start() error {
	s.serverLock.Lock()
	defer s.serverLock.Unlock()
	if s.server != nil {
		return ErrAlreadyStarted
	}

	server, err := newGRPCServer(s.address, defaultOutBufferSize)
	if err != nil {
		return err
	}
	err = server.Listen()
	if err != nil {
		return err
	}
	s.server = server
	log.Printf("scope server listening on %s", server.Addr())

	go func() {
		err := server.Serve()
		if err != nil {
			log.Printf("scope server failed: %v", err)
		}

		s.serverLock.Lock()
		if s.server == server {
			s.server = nil
		}
		s.serverLock.Unlock()
	}()

	return nil
}

func (s *ScopeServer) Stop() {
	s.serverLock.Lock()
	server := s.server
	s.server = nil
	s.serverLock.Unlock()

	if server == nil {
		return
	}
	server.Stop()
}

func (s *ScopeServer) activeServer() *grpcServer {
	s.serverLock.Lock()
	defer s.serverLock.Unlock()
	return s.server
}

func (s *ScopeServer) ShowTimeFrame(timeFrame *TimeFrame) {
	if server := s.activeServer(); server != nil {
		server.SendFrame(encodeTimeFrame(timeFrame))
	}
}

func (s *ScopeServer) ShowSpectralFrame(spectralFrame *SpectralFrame) {
	if server := s.activeServer(); server != nil {
		server.SendFrame(encodeSpectralFrame(spectralFrame))
	}
}

func (s *ScopeServer) ShowPlotFrame(plotFrame *PlotFrame) {
	if server := s.activeServer(); server != nil {
		server.SendFrame(encodePlotFrame(plotFrame))
	}
}
