package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sort"
)

// Predicate decides whether a 2xx response body is a success.
type Predicate int

const (
	// PredFlag requires "success": true.
	PredFlag Predicate = iota
	// PredList accepts "success": true or an array in "data", empty included.
	PredList
	// PredData accepts "success": true or any non-null "data".
	PredData
	// PredBinary accepts any non-empty 2xx body as raw bytes.
	PredBinary
	// PredStatus accepts any 2xx response unless it says "success": false.
	PredStatus
)

// Endpoint describes one remote operation.
type Endpoint struct {
	Name    string
	Method  string
	Path    string
	Public  bool // sent without the bearer token
	Success Predicate
}

var (
	EndpointLogin                = Endpoint{"login", http.MethodPost, "/brand-store/login", false, PredFlag}
	EndpointLogout               = Endpoint{"logout", http.MethodPost, "/brand-store/logout", false, PredStatus}
	EndpointTotalSales           = Endpoint{"totalSales", http.MethodGet, "/brand-store/sales/get-total-sales", false, PredFlag}
	EndpointTotalStock           = Endpoint{"totalStock", http.MethodGet, "/brand-store/stock/get-total-stock", false, PredFlag}
	EndpointStockList            = Endpoint{"stockList", http.MethodGet, "/brand-store/stock/inventories", false, PredList}
	EndpointStockUpdateList      = Endpoint{"stockUpdateList", http.MethodGet, "/brand-store/stock/invoice-list", false, PredList}
	EndpointSalesList            = Endpoint{"salesList", http.MethodGet, "/brand-store/sales/invoice-list", false, PredList}
	EndpointStockUpdateCreate    = Endpoint{"stockUpdateCreate", http.MethodPost, "/brand-store/stock/update", false, PredData}
	EndpointSerialNoVerify       = Endpoint{"serialNoVerify", http.MethodPost, "/brand-store/sales/serial_no_verify", false, PredList}
	EndpointSalesCreate          = Endpoint{"salesCreate", http.MethodPost, "/brand-store/sales/create", false, PredData}
	EndpointChangePasswordVerify = Endpoint{"changePasswordVerify", http.MethodPost, "/brand-store/change-password-verify", false, PredFlag}
	EndpointChangePassword       = Endpoint{"changePassword", http.MethodPost, "/brand-store/change-password", false, PredFlag}
	EndpointStoreList            = Endpoint{"dropdownData", http.MethodGet, "/brand-store/get-store-list", false, PredList}
	EndpointSalesReport          = Endpoint{"salesReport", http.MethodPost, "/brand-store/sales/export-sales-report", false, PredBinary}
	EndpointStockReport          = Endpoint{"stockReport", http.MethodPost, "/brand-store/stock/export-stock-report", false, PredBinary}
	EndpointSendOtp              = Endpoint{"sendOtp", http.MethodPost, "/send-otp-phone", true, PredFlag}
	EndpointVerifyOtp            = Endpoint{"verifyOtp", http.MethodPost, "/verify-otp", true, PredFlag}
	EndpointResetPassword        = Endpoint{"resetPassword", http.MethodPost, "/reset-password-phone", true, PredFlag}
)

// Endpoints is the full operation table.
var Endpoints = []Endpoint{
	EndpointLogin,
	EndpointLogout,
	EndpointTotalSales,
	EndpointTotalStock,
	EndpointStockList,
	EndpointStockUpdateList,
	EndpointSalesList,
	EndpointStockUpdateCreate,
	EndpointSerialNoVerify,
	EndpointSalesCreate,
	EndpointChangePasswordVerify,
	EndpointChangePassword,
	EndpointStoreList,
	EndpointSalesReport,
	EndpointStockReport,
	EndpointSendOtp,
	EndpointVerifyOtp,
	EndpointResetPassword,
}

// envelope is the JSON wrapper every non-binary endpoint answers with.
type envelope struct {
	Success *bool               `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Message json.RawMessage     `json:"message"`
	Errors  map[string][]string `json:"errors"`
	Meta    json.RawMessage     `json:"meta"`
}

// accepts applies the endpoint predicate to a decoded envelope.
func (p Predicate) accepts(env *envelope) bool {
	if env.Success != nil && !*env.Success {
		return false
	}
	flag := env.Success != nil && *env.Success
	data := bytes.TrimSpace(env.Data)
	switch p {
	case PredFlag:
		return flag
	case PredList:
		return flag || (len(data) > 0 && data[0] == '[')
	case PredData:
		return flag || (len(data) > 0 && !bytes.Equal(data, []byte("null")))
	case PredStatus:
		return true
	}
	return false
}

// message extracts a human readable message from the envelope, preferring
// the top-level message and falling back to the first validation error.
func (env *envelope) message() string {
	var s string
	if len(env.Message) > 0 && json.Unmarshal(env.Message, &s) == nil && s != "" {
		return s
	}
	fields := make([]string, 0, len(env.Errors))
	for f := range env.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		if msgs := env.Errors[f]; len(msgs) > 0 {
			return msgs[0]
		}
	}
	return ""
}
