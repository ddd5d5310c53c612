package mmuservice

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/sushant-115/gojovmm/core/paging"
	"github.com/sushant-115/gojovmm/core/paging/mmu"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client calls a remote MMU service.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to addr. A nil tlsConfig uses plaintext.
func Dial(addr string, tlsConfig *tls.Config, opts ...grpc.DialOption) (*Client, error) {
	creds := insecure.NewCredentials()
	if tlsConfig != nil {
		creds = credentials.NewTLS(tlsConfig)
	}
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(creds)}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client for %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error { return c.conn.Close() }

// Translate asks the service to translate va. Status codes are mapped back
// to the errors of package mmu so callers can use errors.Is either way.
func (c *Client) Translate(ctx context.Context, va mmu.VirtualAddress) (mmu.PhysicalAddress, error) {
	out := new(wrapperspb.UInt64Value)
	if err := c.conn.Invoke(ctx, translateMethod, wrapperspb.UInt64(uint64(va)), out); err != nil {
		return 0, fromStatus(err)
	}
	return mmu.PhysicalAddress(out.GetValue()), nil
}

func (c *Client) Stats(ctx context.Context) (mmu.Stats, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, statsMethod, &emptypb.Empty{}, out); err != nil {
		return mmu.Stats{}, fromStatus(err)
	}
	f := out.GetFields()
	return mmu.Stats{
		Accesses:      uint64(f["accesses"].GetNumberValue()),
		Hits:          uint64(f["hits"].GetNumberValue()),
		Faults:        uint64(f["faults"].GetNumberValue()),
		Evictions:     uint64(f["evictions"].GetNumberValue()),
		OutOfRange:    uint64(f["out_of_range"].GetNumberValue()),
		ResidentPages: int(f["resident_pages"].GetNumberValue()),
	}, nil
}

func (c *Client) Tables(ctx context.Context) (mmu.Tables, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, tablesMethod, &emptypb.Empty{}, out); err != nil {
		return mmu.Tables{}, fromStatus(err)
	}

	f := out.GetFields()
	tables := mmu.Tables{NextVictim: paging.FrameID(f["next_victim"].GetNumberValue())}
	for _, v := range f["pages"].GetListValue().GetValues() {
		row := v.GetStructValue().GetFields()
		pe := mmu.PageEntry{Page: paging.PageID(row["page"].GetNumberValue())}
		if frame, ok := row["frame"].GetKind().(*structpb.Value_NumberValue); ok {
			pe.Frame, pe.Valid = paging.FrameID(frame.NumberValue), true
		}
		tables.Pages = append(tables.Pages, pe)
	}
	for _, v := range f["frames"].GetListValue().GetValues() {
		row := v.GetStructValue().GetFields()
		fe := mmu.FrameEntry{Frame: paging.FrameID(row["frame"].GetNumberValue())}
		if page, ok := row["page"].GetKind().(*structpb.Value_NumberValue); ok {
			fe.Page, fe.Occupied = paging.PageID(page.NumberValue), true
		}
		tables.Frames = append(tables.Frames, fe)
	}
	return tables, nil
}

func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.OutOfRange:
		return fmt.Errorf("%w: %s", mmu.ErrAddressOutOfRange, st.Message())
	case codes.Unavailable:
		if st.Message() == mmu.ErrShutdown.Error() {
			return mmu.ErrShutdown
		}
	}
	return err
}
