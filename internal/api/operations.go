package api

import (
	"context"
	"encoding/json"

	"github.com/amdadul/brandstore-crm/internal/model"
)

// Ack is the payload of endpoints that only acknowledge.
type Ack = json.RawMessage

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type StockUpdateRequest struct {
	SerialNo string `json:"serial_no"`
}

type SerialVerifyRequest struct {
	SerialNo string `json:"serial_no"`
}

type SaleRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	SerialNo string `json:"serial_no"`
}

type ChangePasswordVerifyRequest struct {
	OldPassword string `json:"old_password"`
}

type ChangePasswordRequest struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"c_password"`
}

type SalesReportRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	StoreID   string `json:"store_id"`
}

type StockReportRequest struct {
	StoreID string `json:"store_id"`
}

type SendOtpRequest struct {
	Phone      string `json:"phone"`
	Type       int    `json:"type"`
	CheckPlace int    `json:"check_place"`
}

type VerifyOtpRequest struct {
	Medium     string `json:"medium"`
	Otp        string `json:"otp"`
	Type       int    `json:"type"`
	CheckPlace int    `json:"check_place"`
}

type ResetPasswordRequest struct {
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Type            int    `json:"type"`
}

func (c *Client) Login(ctx context.Context, email, password string) Result[model.Profile] {
	return Call[model.Profile](ctx, c, EndpointLogin, LoginRequest{Email: email, Password: password})
}

func (c *Client) Logout(ctx context.Context) Result[Ack] {
	return Call[Ack](ctx, c, EndpointLogout, nil)
}

func (c *Client) TotalSales(ctx context.Context) Result[json.Number] {
	return Call[json.Number](ctx, c, EndpointTotalSales, nil)
}

func (c *Client) TotalStock(ctx context.Context) Result[json.Number] {
	return Call[json.Number](ctx, c, EndpointTotalStock, nil)
}

func (c *Client) StockList(ctx context.Context, page int) Result[model.Page[model.StockItem]] {
	return callPage[model.StockItem](ctx, c, EndpointStockList, page, c.stockPerPage)
}

func (c *Client) StockUpdateList(ctx context.Context, page int) Result[model.Page[model.Invoice]] {
	return callPage[model.Invoice](ctx, c, EndpointStockUpdateList, page, c.invoicePerPage)
}

func (c *Client) SalesList(ctx context.Context, page int) Result[model.Page[model.SaleRecord]] {
	return callPage[model.SaleRecord](ctx, c, EndpointSalesList, page, c.invoicePerPage)
}

func (c *Client) StockUpdateCreate(ctx context.Context, req StockUpdateRequest) Result[Ack] {
	return Call[Ack](ctx, c, EndpointStockUpdateCreate, req)
}

func (c *Client) SerialNoVerify(ctx context.Context, serialNo string) Result[[]model.VerifiedProduct] {
	return Call[[]model.VerifiedProduct](ctx, c, EndpointSerialNoVerify, SerialVerifyRequest{SerialNo: serialNo})
}

func (c *Client) SalesCreate(ctx context.Context, req SaleRequest) Result[Ack] {
	return Call[Ack](ctx, c, EndpointSalesCreate, req)
}

func (c *Client) ChangePasswordVerify(ctx context.Context, oldPassword string) Result[Ack] {
	return Call[Ack](ctx, c, EndpointChangePasswordVerify, ChangePasswordVerifyRequest{OldPassword: oldPassword})
}

func (c *Client) ChangePassword(ctx context.Context, req ChangePasswordRequest) Result[Ack] {
	return Call[Ack](ctx, c, EndpointChangePassword, req)
}

// StoreList returns the store dropdown entries.
func (c *Client) StoreList(ctx context.Context) Result[[]model.Store] {
	return Call[[]model.Store](ctx, c, EndpointStoreList, nil)
}

// SalesReport downloads the sales report workbook.
func (c *Client) SalesReport(ctx context.Context, req SalesReportRequest) Result[[]byte] {
	return callBinary(ctx, c, EndpointSalesReport, req)
}

// StockReport downloads the stock report workbook.
func (c *Client) StockReport(ctx context.Context, req StockReportRequest) Result[[]byte] {
	return callBinary(ctx, c, EndpointStockReport, req)
}

func (c *Client) SendOtp(ctx context.Context, req SendOtpRequest) Result[Ack] {
	return Call[Ack](ctx, c, EndpointSendOtp, req)
}

func (c *Client) VerifyOtp(ctx context.Context, req VerifyOtpRequest) Result[Ack] {
	return Call[Ack](ctx, c, EndpointVerifyOtp, req)
}

func (c *Client) ResetPassword(ctx context.Context, req ResetPasswordRequest) Result[Ack] {
	return Call[Ack](ctx, c, EndpointResetPassword, req)
}
