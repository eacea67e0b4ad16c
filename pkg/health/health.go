package pkghealth

import (
	"net"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Server is the grpc.health.v1 endpoint of one participant.
// It reports NOT_SERVING until SetServing is called.
type Server struct {
	service string
	addr    string
	grpc    *grpc.Server
	health  *health.Server
}

func NewServer(service, addr string) *Server {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(service, healthpb.HealthCheckResponse_NOT_SERVING)

	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, hs)

	return &Server{
		service: service,
		addr:    addr,
		grpc:    gs,
		health:  hs,
	}
}

func (s *Server) SetServing() {
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(s.service, healthpb.HealthCheckResponse_SERVING)
}

func (s *Server) SetNotServing() {
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	s.health.SetServingStatus(s.service, healthpb.HealthCheckResponse_NOT_SERVING)
}

func (s *Server) Listen() error {
	l, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(l)
}

func (s *Server) Serve(l net.Listener) error {
	logrus.WithFields(logrus.Fields{
		"ADDR":    l.Addr().String(),
		"SERVICE": s.service,
	}).Info("GRPC:HEALTH:LISTEN")
	return s.grpc.Serve(l)
}

func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
