package api

import (
	"context"
	"fmt"

	"github.com/alphaseven/escrow-chat/internal/types"
)

type LoginResult struct {
	User  types.User `json:"user"`
	Token string     `json:"token"`
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c *Client) Register(ctx context.Context, username, password string) (LoginResult, error) {
	var res LoginResult
	err := c.post(ctx, "/register", registerRequest{Username: username, Password: password}, &res)

	return res, err
}

func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	var res LoginResult
	err := c.post(ctx, "/login", registerRequest{Username: username, Password: password}, &res)

	return res, err
}

func (c *Client) Trades(ctx context.Context) ([]types.Trade, error) {
	var trades []types.Trade
	err := c.get(ctx, "/trades", &trades)

	return trades, err
}

func (c *Client) Trade(ctx context.Context, tradeId int) (types.Trade, error) {
	var trade types.Trade
	err := c.get(ctx, fmt.Sprintf("/trades/%d", tradeId), &trade)

	return trade, err
}

type createTradeRequest struct {
	SellerId int     `json:"seller_id"`
	Asset    string  `json:"asset"`
	Amount   float64 `json:"amount"`
}

func (c *Client) CreateTrade(ctx context.Context, sellerId int, asset string, amount float64) (types.Trade, error) {
	var trade types.Trade
	err := c.post(ctx, "/trades", createTradeRequest{SellerId: sellerId, Asset: asset, Amount: amount}, &trade)

	return trade, err
}

func (c *Client) BuyTrade(ctx context.Context, tradeId, buyerId int) (types.Trade, error) {
	var trade types.Trade
	err := c.post(ctx, fmt.Sprintf("/trades/%d/buy", tradeId), map[string]int{"buyer_id": buyerId}, &trade)

	return trade, err
}

func (c *Client) ReleaseTrade(ctx context.Context, tradeId, sellerId int) (types.Trade, error) {
	var trade types.Trade
	err := c.post(ctx, fmt.Sprintf("/trades/%d/release", tradeId), map[string]int{"seller_id": sellerId}, &trade)

	return trade, err
}

func (c *Client) CancelTrade(ctx context.Context, tradeId, userId int) (types.Trade, error) {
	var trade types.Trade
	err := c.post(ctx, fmt.Sprintf("/trades/%d/cancel", tradeId), map[string]int{"user_id": userId}, &trade)

	return trade, err
}

// UserChats lists the trades the user participates in; their ids seed
// the realtime session's room membership.
func (c *Client) UserChats(ctx context.Context, userId int) ([]types.Trade, error) {
	var trades []types.Trade
	err := c.get(ctx, fmt.Sprintf("/trades/user/%d/chats", userId), &trades)

	return trades, err
}

// TradeMessages returns the chat history for one trade, used to
// backfill a chat view before joining the live room.
func (c *Client) TradeMessages(ctx context.Context, tradeId int) ([]types.ChatMessage, error) {
	var messages []types.ChatMessage
	err := c.get(ctx, fmt.Sprintf("/trades/%d/messages", tradeId), &messages)

	return messages, err
}
