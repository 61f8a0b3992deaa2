// Package qdrant wraps the Qdrant gRPC API with the few collection and point
// operations the vector index needs.
package qdrant

import (
	"context"
	"errors"
	"fmt"
	"time"

	qpb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/kailas-cloud/talentmatch/internal/db"
)

// Op names used in *db.Error.
const (
	OpCreateCollection = "qdrant.CreateCollection"
	OpCollectionExists = "qdrant.CollectionExists"
	OpUpsert           = "qdrant.Upsert"
	OpSearch           = "qdrant.Search"
	OpGet              = "qdrant.Get"
	OpDelete           = "qdrant.Delete"
	OpScroll           = "qdrant.Scroll"
)

const scrollPage = 256

// Config holds connection parameters.
type Config struct {
	Addr        string
	DialTimeout time.Duration
}

// Point is a stored vector with string payload.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]string
}

// ScoredPoint is a search hit. Score is cosine similarity.
type ScoredPoint struct {
	ID      string
	Score   float64
	Payload map[string]string
}

// Client talks to Qdrant over gRPC.
type Client struct {
	conn        *grpc.ClientConn
	collections qpb.CollectionsClient
	points      qpb.PointsClient
	health      qpb.QdrantClient
}

// Dial connects to a Qdrant gRPC endpoint.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Addr == "" {
		return nil, errors.New("qdrant addr is required")
	}
	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	//nolint:staticcheck // DialContext keeps the blocking dial semantics
	conn, err := grpc.DialContext(dialCtx, cfg.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial qdrant: %w", err)
	}
	return &Client{
		conn:        conn,
		collections: qpb.NewCollectionsClient(conn),
		points:      qpb.NewPointsClient(conn),
		health:      qpb.NewQdrantClient(conn),
	}, nil
}

// NewClientForTest builds a Client over the provided service clients (test-only).
func NewClientForTest(c qpb.CollectionsClient, p qpb.PointsClient) *Client {
	return &Client{collections: c, points: p}
}

// Close releases the connection.
func (c *Client) Close() {
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// Ping runs the server health check.
func (c *Client) Ping(ctx context.Context) error {
	if c.health == nil {
		return nil
	}
	if _, err := c.health.HealthCheck(ctx, &qpb.HealthCheckRequest{}); err != nil {
		return fmt.Errorf("qdrant health check: %w", err)
	}
	return nil
}

// EnsureCollection creates a cosine collection of the given dimension if it does not exist.
func (c *Client) EnsureCollection(ctx context.Context, name string, dim int) error {
	resp, err := c.collections.CollectionExists(ctx, &qpb.CollectionExistsRequest{CollectionName: name})
	if err != nil {
		return &db.Error{Op: OpCollectionExists, Err: err}
	}
	if resp.GetResult().GetExists() {
		return nil
	}

	_, err = c.collections.Create(ctx, &qpb.CreateCollection{
		CollectionName: name,
		VectorsConfig: &qpb.VectorsConfig{
			Config: &qpb.VectorsConfig_Params{
				Params: &qpb.VectorParams{
					Size:     uint64(dim),
					Distance: qpb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil
		}
		return &db.Error{Op: OpCreateCollection, Err: err}
	}
	return nil
}

// Upsert writes a single point and waits for it to be searchable.
func (c *Client) Upsert(ctx context.Context, collection string, p Point) error {
	wait := true
	_, err := c.points.Upsert(ctx, &qpb.UpsertPoints{
		CollectionName: collection,
		Wait:           &wait,
		Points: []*qpb.PointStruct{{
			Id: uuidID(p.ID),
			Vectors: &qpb.Vectors{
				VectorsOptions: &qpb.Vectors_Vector{
					Vector: &qpb.Vector{Vector: &qpb.Vector_Dense{Dense: &qpb.DenseVector{Data: p.Vector}}},
				},
			},
			Payload: toPayload(p.Payload),
		}},
	})
	if err != nil {
		return wrap(OpUpsert, err)
	}
	return nil
}

// Search returns the nearest points, best first.
func (c *Client) Search(ctx context.Context, collection string, vector []float32, limit int) ([]ScoredPoint, error) {
	resp, err := c.points.Search(ctx, &qpb.SearchPoints{
		CollectionName: collection,
		Vector:         vector,
		Limit:          uint64(limit),
		WithPayload:    &qpb.WithPayloadSelector{SelectorOptions: &qpb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, wrap(OpSearch, err)
	}

	out := make([]ScoredPoint, 0, len(resp.GetResult()))
	for _, r := range resp.GetResult() {
		out = append(out, ScoredPoint{
			ID:      r.GetId().GetUuid(),
			Score:   float64(r.GetScore()),
			Payload: fromPayload(r.GetPayload()),
		})
	}
	return out, nil
}

// Get fetches one point with its vector. Returns db.ErrKeyNotFound when absent.
func (c *Client) Get(ctx context.Context, collection, id string) (Point, error) {
	resp, err := c.points.Get(ctx, &qpb.GetPoints{
		CollectionName: collection,
		Ids:            []*qpb.PointId{uuidID(id)},
		WithPayload:    &qpb.WithPayloadSelector{SelectorOptions: &qpb.WithPayloadSelector_Enable{Enable: true}},
		WithVectors:    &qpb.WithVectorsSelector{SelectorOptions: &qpb.WithVectorsSelector_Enable{Enable: true}},
	})
	if err != nil {
		return Point{}, wrap(OpGet, err)
	}
	if len(resp.GetResult()) == 0 {
		return Point{}, db.ErrKeyNotFound
	}

	r := resp.GetResult()[0]
	vec := r.GetVectors().GetVector()
	data := vec.GetDense().GetData()
	if len(data) == 0 {
		data = vec.GetData()
	}
	return Point{ID: r.GetId().GetUuid(), Vector: data, Payload: fromPayload(r.GetPayload())}, nil
}

// Delete removes a point. Deleting a missing point is not an error.
func (c *Client) Delete(ctx context.Context, collection, id string) error {
	wait := true
	_, err := c.points.Delete(ctx, &qpb.DeletePoints{
		CollectionName: collection,
		Wait:           &wait,
		Points: &qpb.PointsSelector{
			PointsSelectorOneOf: &qpb.PointsSelector_Points{
				Points: &qpb.PointsIdsList{Ids: []*qpb.PointId{uuidID(id)}},
			},
		},
	})
	if err != nil {
		err = wrap(OpDelete, err)
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil
		}
		return err
	}
	return nil
}

// Scroll pages through every point of a collection, payload only.
func (c *Client) Scroll(ctx context.Context, collection string) ([]Point, error) {
	var (
		out    []Point
		offset *qpb.PointId
	)
	for {
		limit := uint32(scrollPage)
		resp, err := c.points.Scroll(ctx, &qpb.ScrollPoints{
			CollectionName: collection,
			Limit:          &limit,
			Offset:         offset,
			WithPayload:    &qpb.WithPayloadSelector{SelectorOptions: &qpb.WithPayloadSelector_Enable{Enable: true}},
		})
		if err != nil {
			return nil, wrap(OpScroll, err)
		}
		for _, r := range resp.GetResult() {
			out = append(out, Point{ID: r.GetId().GetUuid(), Payload: fromPayload(r.GetPayload())})
		}
		offset = resp.GetNextPageOffset()
		if offset == nil {
			return out, nil
		}
	}
}

func uuidID(id string) *qpb.PointId {
	return &qpb.PointId{PointIdOptions: &qpb.PointId_Uuid{Uuid: id}}
}

func toPayload(m map[string]string) map[string]*qpb.Value {
	out := make(map[string]*qpb.Value, len(m))
	for k, v := range m {
		out[k] = &qpb.Value{Kind: &qpb.Value_StringValue{StringValue: v}}
	}
	return out
}

func fromPayload(m map[string]*qpb.Value) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		if s, ok := v.GetKind().(*qpb.Value_StringValue); ok {
			out[k] = s.StringValue
		}
	}
	return out
}

// wrap maps a missing collection to db.ErrIndexNotFound and tags everything else with op.
func wrap(op string, err error) error {
	if status.Code(err) == codes.NotFound {
		return db.ErrIndexNotFound
	}
	return &db.Error{Op: op, Err: err}
}
