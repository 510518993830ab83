package oracle

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/spalen0/velov2/internal/logger"
)

// Error definitions for zero-tolerance error handling
var (
	ErrInvalidConnection = errors.New("gRPC connection is invalid")
	ErrOracleQueryFailed = errors.New("oracle query failed")
)

var oracleLogger = logger.GetForComponent("authorization_oracle")

// GRPCOracle queries an external voter service over the standard gRPC
// health-checking protocol. The gauge address is used as the service name;
// a SERVING status means the gauge is still eligible for emissions.
type GRPCOracle struct {
	health grpc_health_v1.HealthClient
}

// NewGRPCOracle wraps an established gRPC connection.
func NewGRPCOracle(conn *grpc.ClientConn) (*GRPCOracle, error) {
	if conn == nil {
		return nil, ErrInvalidConnection
	}
	return &GRPCOracle{
		health: grpc_health_v1.NewHealthClient(conn),
	}, nil
}

// IsAlive implements AuthorizationOracle.
func (o *GRPCOracle) IsAlive(ctx context.Context, gauge string) (bool, error) {
	resp, err := o.health.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: gauge})
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrOracleQueryFailed, err)
	}

	alive := resp.GetStatus() == grpc_health_v1.HealthCheckResponse_SERVING
	if !alive {
		oracleLogger.Warn().
			Str("gauge", gauge).
			Str("status", resp.GetStatus().String()).
			Msg("Gauge reported not authorized by oracle")
	}
	return alive, nil
}
