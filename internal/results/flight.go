package results

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/SID-Devu/LLM-Attention-DeepDive/internal/attn"
	"github.com/SID-Devu/LLM-Attention-DeepDive/internal/bench"
)

// flightPath identifies the benchmark dataset on the collector side.
var flightPath = []string{"attention_benchmarks"}

// Publisher pushes benchmark records to a remote Arrow Flight collector
// over a DoPut stream.
type Publisher struct {
	addr   string
	client flight.Client
}

func NewPublisher(addr string) *Publisher {
	return &Publisher{addr: addr}
}

// Connect dials the Flight server. The connection is lazy; failures surface
// on the first Publish.
func (p *Publisher) Connect() error {
	client, err := flight.NewClientWithMiddleware(p.addr, nil, nil,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("%w: flight dial %s: %v", attn.ErrDeviceOperation, p.addr, err)
	}
	p.client = client
	return nil
}

// Publish sends the rows as a single record batch.
func (p *Publisher) Publish(ctx context.Context, rows []bench.Result) error {
	if p.client == nil {
		return fmt.Errorf("%w: publisher not connected", attn.ErrDeviceOperation)
	}
	if len(rows) == 0 {
		return nil
	}

	stream, err := p.client.DoPut(ctx)
	if err != nil {
		return fmt.Errorf("%w: flight DoPut: %v", attn.ErrDeviceOperation, err)
	}

	wtr := flight.NewRecordWriter(stream, ipc.WithSchema(Schema()))
	wtr.SetFlightDescriptor(&flight.FlightDescriptor{
		Type: flight.DescriptorPATH,
		Path: flightPath,
	})

	rec := buildRecord(rows)
	werr := wtr.Write(rec)
	rec.Release()
	if werr != nil {
		wtr.Close()
		return fmt.Errorf("%w: flight write: %v", attn.ErrDeviceOperation, werr)
	}

	if err := wtr.Close(); err != nil {
		return fmt.Errorf("%w: flight close: %v", attn.ErrDeviceOperation, err)
	}
	if err := stream.CloseSend(); err != nil {
		return fmt.Errorf("%w: flight close send: %v", attn.ErrDeviceOperation, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}
