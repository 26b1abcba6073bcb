// Package telnet provides the status console: every connected client receives the frame
// counter, the status line and the track table, and can control the simulation and the
// displayed range.
package telnet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/ftl/radarview/frame"
)

const (
	newConnectionDeadline     = 100 * time.Millisecond
	connectionKeepAlivePeriod = 30 * time.Second
	readBufferSize            = 1024
	DefaultReportPeriod       = time.Second
)

type Server struct {
	listener *net.TCPListener
	version  string
	commands *Commands

	connections []*Connection

	reportLock   sync.Mutex
	reportPeriod time.Duration
	lastReport   time.Time

	msg    chan []byte
	close  chan struct{}
	closed chan struct{}
}

// NewServer starts a console server on the given address. The commands of the connected
// clients are executed against the given controller.
func NewServer(address string, version string, controller Controller) (*Server, error) {
	localAddress, err := net.ResolveTCPAddr("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve address %s: %w", address, err)
	}
	listener, err := net.ListenTCP("tcp", localAddress)
	if err != nil {
		return nil, fmt.Errorf("cannot listen on address %s: %w", address, err)
	}

	result := &Server{
		listener:     listener,
		version:      version,
		commands:     NewCommands(controller),
		reportPeriod: DefaultReportPeriod,
		msg:          make(chan []byte, 1),
		close:        make(chan struct{}),
		closed:       make(chan struct{}),
	}

	go result.run()

	return result, nil
}

func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

func (s *Server) run() {
	defer close(s.closed)
	defer s.listener.Close()
	welcome := fmt.Sprintf("radarview Version %s\ntype help for a list of commands\n", s.version)

	removeConnections := make([]int, 0, 10)
	for {
		select {
		case <-s.close:
			for _, conn := range s.connections {
				conn.Close()
			}
			return
		case bytes := <-s.msg:
			removeConnections = removeConnections[:0]
			for i, conn := range s.connections {
				_, err := conn.Write(bytes)
				if err != nil {
					log.Printf("found closed connection %s", conn.String())
					removeConnections = append(removeConnections, i)
				}
			}
			for i, index := range removeConnections {
				s.removeConnection(index - i)
			}
		default:
			err := s.listener.SetDeadline(time.Now().Add(newConnectionDeadline))
			if err != nil {
				log.Printf("setting the listener deadline failed: %v", err)
				return
			}
			conn, err := s.listener.AcceptTCP()
			if errors.Is(err, os.ErrDeadlineExceeded) {
				// ignore, nobody is calling
				continue
			} else if err != nil {
				log.Println(err)
				continue
			}

			log.Printf("new incoming connection: %v", conn.RemoteAddr())
			conn.SetKeepAlivePeriod(connectionKeepAlivePeriod)
			conn.SetKeepAlive(true)
			connection := NewConnection(conn, welcome, s.commands)
			s.connections = append(s.connections, connection)
		}
	}
}

func (s *Server) removeConnection(index int) {
	if index < 0 || index >= len(s.connections) {
		return
	}
	log.Printf("removing connection %s", s.connections[index].String())
	last := len(s.connections) - 1
	if index < last {
		copy(s.connections[index:], s.connections[index+1:])
	}
	s.connections[last] = nil
	s.connections = s.connections[:last]
}

func (s *Server) Stop() {
	select {
	case <-s.closed:
		return
	default:
		close(s.close)
		<-s.closed
	}
}

// SetReportPeriod sets the minimum time between two reports. Zero reports every snapshot.
func (s *Server) SetReportPeriod(period time.Duration) {
	s.reportLock.Lock()
	defer s.reportLock.Unlock()
	s.reportPeriod = period
}

// Publish broadcasts the report of the given snapshot to all connected clients, at most
// once per report period. Reports are dropped if the clients cannot keep up.
func (s *Server) Publish(_ context.Context, snapshot frame.Snapshot) error {
	if !s.shouldReport(snapshot.Timestamp) {
		return nil
	}

	select {
	case <-s.closed:
		return net.ErrClosed
	default:
	}

	select {
	case s.msg <- []byte(FormatReport(snapshot)):
	default:
		log.Printf("console report %d dropped", snapshot.Number)
	}
	return nil
}

func (s *Server) shouldReport(timestamp time.Time) bool {
	s.reportLock.Lock()
	defer s.reportLock.Unlock()
	if !s.lastReport.IsZero() && timestamp.Sub(s.lastReport) < s.reportPeriod {
		return false
	}
	s.lastReport = timestamp
	return true
}

var ErrClosed = errors.New("connection already closed")

type Prompt struct {
	Question string
	Answer   func(string) (string, *Prompt)
}

type Connection struct {
	conn  io.ReadWriteCloser
	msg   chan []byte
	input chan []byte

	commands      *Commands
	currentPrompt *Prompt
	currentAnswer string

	close  chan struct{}
	closed chan struct{}

	remote string
}

func NewConnection(conn io.ReadWriteCloser, welcome string, commands *Commands) *Connection {
	result := &Connection{
		conn:  conn,
		msg:   make(chan []byte, 1),
		input: make(chan []byte, 1),

		commands: commands,

		close:  make(chan struct{}),
		closed: make(chan struct{}),
	}
	if netConn, ok := conn.(net.Conn); ok {
		result.remote = netConn.RemoteAddr().String()
	}

	result.writeAll([]byte(welcome))

	go result.run()
	go result.readLoop()

	return result
}

func (c *Connection) run() {
	defer close(c.closed)
	defer func() {
		err := c.conn.Close()
		if err != nil {
			log.Printf("close %s: %v", c.remote, err)
		}
	}()

	commandPrompt := &Prompt{
		Question: "> ",
	}
	commandPrompt.Answer = func(answer string) (string, *Prompt) {
		if answer == "" {
			return "", commandPrompt
		}
		return c.commands.Execute(answer), commandPrompt
	}

	err := c.startPrompt(commandPrompt)
	if err != nil {
		log.Printf("%s: %v", c.remote, err)
	}

	for {
		select {
		case <-c.close:
			return
		case bytes := <-c.msg:
			err := c.writeAll(bytes)
			if err != nil {
				log.Printf("%s: %v", c.remote, err)
				return
			}
		case bytes, open := <-c.input:
			if !open {
				return
			}
			for i := 0; i < len(bytes); i++ {
				response, nextPrompt := c.parseAnswerByte(bytes[i])
				if response != "" {
					err := c.writeAll([]byte(response))
					if err != nil {
						log.Printf("%s: %v", c.remote, err)
						return
					}
				}

				err := c.startPrompt(nextPrompt)
				if err != nil {
					log.Printf("%s: %v", c.remote, err)
					continue
				}
			}
		}
	}
}

func (c *Connection) readLoop() {
	defer close(c.input)
	readBuffer := make([]byte, readBufferSize)
	for {
		n, err := c.conn.Read(readBuffer)
		if errors.Is(err, os.ErrClosed) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF) {
			return
		} else if err != nil {
			log.Printf("%s: %v", c.remote, err)
			return
		}

		if n == 0 {
			continue
		}

		bytes := make([]byte, n)
		copy(bytes, readBuffer[:n])
		select {
		case c.input <- bytes:
		case <-c.closed:
			return
		}
	}
}

func (c *Connection) writeAll(bytes []byte) error {
	buffer := bytes
	for len(buffer) > 0 {
		n, err := c.conn.Write(buffer)
		if err != nil {
			return err
		}
		buffer = buffer[n:]
	}
	return nil
}

func (c *Connection) startPrompt(prompt *Prompt) error {
	if prompt == nil {
		return nil
	}
	c.currentPrompt = prompt
	return c.writeAll([]byte(prompt.Question))
}

func (c *Connection) parseAnswerByte(answerByte byte) (string, *Prompt) {
	switch answerByte {
	case '\r':
		return "", nil
	case '\n':
		response, nextPrompt := c.currentPrompt.Answer(c.currentAnswer)
		c.currentAnswer = ""
		return response, nextPrompt
	default:
		c.currentAnswer += string(answerByte)
		return "", nil
	}
}

func (c *Connection) Close() {
	select {
	case <-c.closed:
		return
	default:
		close(c.close)
		<-c.closed
	}
}

// Write queues the given bytes for the client. It returns ErrClosed if the connection
// was already closed.
func (c *Connection) Write(bytes []byte) (int, error) {
	select {
	case <-c.closed:
		return 0, ErrClosed
	case c.msg <- bytes:
		return len(bytes), nil
	}
}

func (c *Connection) String() string {
	return c.remote
}
