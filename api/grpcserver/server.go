// Package grpcserver adapts the engine to gRPC. The service is registered
// with a hand-written descriptor over the wire.Codec; install the codec on
// the server with grpc.ForceServerCodec(wire.Codec{}).
package grpcserver

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/wguffey/hft-order-engine/api/wire"
	"github.com/wguffey/hft-order-engine/domain/orderbook"
	"github.com/wguffey/hft-order-engine/service"
)

// EngineServer is the server API for the enginepb.Engine service.
type EngineServer interface {
	AddOrder(context.Context, *wire.AddOrderRequest) (*wire.AddOrderResponse, error)
	CancelOrder(context.Context, *wire.CancelOrderRequest) (*wire.CancelOrderResponse, error)
	ModifyOrder(context.Context, *wire.ModifyOrderRequest) (*wire.ModifyOrderResponse, error)
	GetTopOfBook(context.Context, *wire.TopOfBookRequest) (*wire.TopOfBook, error)
	GetDepth(context.Context, *wire.DepthRequest) (*wire.DepthResponse, error)
	GetImbalance(context.Context, *wire.ImbalanceRequest) (*wire.ImbalanceResponse, error)
}

// Server adapts service.Engine to EngineServer.
type Server struct {
	svc *service.Engine
	log *slog.Logger
}

func NewServer(svc *service.Engine, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{svc: svc, log: log}
}

// Register attaches the Engine service to s.
func Register(s *grpc.Server, srv EngineServer) {
	s.RegisterService(&serviceDesc, srv)
}

/******************** Commands ********************/

func (s *Server) AddOrder(ctx context.Context, req *wire.AddOrderRequest) (*wire.AddOrderResponse, error) {
	o := orderbook.NewOrder(
		req.ID,
		req.Symbol,
		req.Price,
		req.Quantity,
		toSide(req.Side),
		toType(req.Type),
		req.Timestamp,
	)

	trades, err := s.svc.Add(o)
	if err != nil {
		return nil, toStatus(err)
	}

	resp := &wire.AddOrderResponse{Trades: make([]wire.Trade, 0, len(trades))}
	for _, t := range trades {
		resp.Trades = append(resp.Trades, wire.Trade{
			ID:           t.ID,
			Symbol:       t.Symbol,
			Price:        t.Price,
			Quantity:     t.Quantity,
			MakerOrderID: t.MakerOrderID,
			TakerOrderID: t.TakerOrderID,
			Timestamp:    t.Timestamp,
		})
	}
	s.log.Debug("AddOrder", "symbol", req.Symbol, "id", req.ID, "trades", len(trades))
	return resp, nil
}

func (s *Server) CancelOrder(ctx context.Context, req *wire.CancelOrderRequest) (*wire.CancelOrderResponse, error) {
	ok, err := s.svc.Cancel(req.Symbol, req.OrderID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &wire.CancelOrderResponse{Canceled: ok}, nil
}

func (s *Server) ModifyOrder(ctx context.Context, req *wire.ModifyOrderRequest) (*wire.ModifyOrderResponse, error) {
	ok, err := s.svc.Modify(req.Symbol, req.OrderID, req.NewPrice, req.NewQuantity)
	if err != nil {
		return nil, toStatus(err)
	}
	return &wire.ModifyOrderResponse{Modified: ok}, nil
}

/******************** Queries ********************/

func (s *Server) GetTopOfBook(ctx context.Context, req *wire.TopOfBookRequest) (*wire.TopOfBook, error) {
	tob, err := s.svc.TopOfBook(req.Symbol)
	if err != nil {
		return nil, toStatus(err)
	}
	return &wire.TopOfBook{
		Symbol:    req.Symbol,
		BidPrice:  tob.BidPrice,
		BidSize:   tob.BidSize,
		AskPrice:  tob.AskPrice,
		AskSize:   tob.AskSize,
		Timestamp: tob.Timestamp,
	}, nil
}

func (s *Server) GetDepth(ctx context.Context, req *wire.DepthRequest) (*wire.DepthResponse, error) {
	bids, asks, err := s.svc.Depth(req.Symbol, int(req.Levels))
	if err != nil {
		return nil, toStatus(err)
	}
	resp := &wire.DepthResponse{
		Bids: make([]wire.DepthLevel, 0, len(bids)),
		Asks: make([]wire.DepthLevel, 0, len(asks)),
	}
	for _, lvl := range bids {
		resp.Bids = append(resp.Bids, wire.DepthLevel{Price: lvl.Price, Quantity: lvl.Quantity})
	}
	for _, lvl := range asks {
		resp.Asks = append(resp.Asks, wire.DepthLevel{Price: lvl.Price, Quantity: lvl.Quantity})
	}
	return resp, nil
}

func (s *Server) GetImbalance(ctx context.Context, req *wire.ImbalanceRequest) (*wire.ImbalanceResponse, error) {
	ofi, err := s.svc.Imbalance(req.Symbol, int(req.Depth))
	if err != nil {
		return nil, toStatus(err)
	}
	return &wire.ImbalanceResponse{Imbalance: ofi}, nil
}

/******************** Converters ********************/

func toSide(s uint64) orderbook.Side {
	if s == wire.SideSell {
		return orderbook.Sell
	}
	return orderbook.Buy
}

func toType(t uint64) orderbook.OrderType {
	switch t {
	case wire.OrderTypeMarket:
		return orderbook.Market
	case wire.OrderTypeStop:
		return orderbook.Stop
	case wire.OrderTypeStopLimit:
		return orderbook.StopLimit
	case wire.OrderTypeIOC:
		return orderbook.IOC
	case wire.OrderTypeFOK:
		return orderbook.FOK
	default:
		return orderbook.Limit
	}
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, service.ErrUnknownSymbol):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, orderbook.ErrSymbolMismatch),
		errors.Is(err, orderbook.ErrDuplicateOrder):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

/******************** Service descriptor ********************/

const fullServiceName = "enginepb.Engine"

var serviceDesc = grpc.ServiceDesc{
	ServiceName: fullServiceName,
	HandlerType: (*EngineServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "AddOrder", Handler: addOrderHandler},
		{MethodName: "CancelOrder", Handler: cancelOrderHandler},
		{MethodName: "ModifyOrder", Handler: modifyOrderHandler},
		{MethodName: "GetTopOfBook", Handler: getTopOfBookHandler},
		{MethodName: "GetDepth", Handler: getDepthHandler},
		{MethodName: "GetImbalance", Handler: getImbalanceHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "api/wire/engine.proto",
}

func addOrderHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wire.AddOrderRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EngineServer).AddOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + fullServiceName + "/AddOrder"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(EngineServer).AddOrder(ctx, req.(*wire.AddOrderRequest))
	})
}

func cancelOrderHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wire.CancelOrderRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EngineServer).CancelOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + fullServiceName + "/CancelOrder"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(EngineServer).CancelOrder(ctx, req.(*wire.CancelOrderRequest))
	})
}

func modifyOrderHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wire.ModifyOrderRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EngineServer).ModifyOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + fullServiceName + "/ModifyOrder"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(EngineServer).ModifyOrder(ctx, req.(*wire.ModifyOrderRequest))
	})
}

func getTopOfBookHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wire.TopOfBookRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EngineServer).GetTopOfBook(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + fullServiceName + "/GetTopOfBook"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(EngineServer).GetTopOfBook(ctx, req.(*wire.TopOfBookRequest))
	})
}

func getDepthHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wire.DepthRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EngineServer).GetDepth(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + fullServiceName + "/GetDepth"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(EngineServer).GetDepth(ctx, req.(*wire.DepthRequest))
	})
}

func getImbalanceHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wire.ImbalanceRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EngineServer).GetImbalance(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + fullServiceName + "/GetImbalance"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(EngineServer).GetImbalance(ctx, req.(*wire.ImbalanceRequest))
	})
}
