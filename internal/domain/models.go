package domain

import "time"

const (
	RoleOwner   = "owner"
	RoleCashier = "cashier"
)

const (
	UserStatusActive   = "active"
	UserStatusInvited  = "invited"
	UserStatusDisabled = "disabled"
)

const (
	TxStatusCompleted = "completed"
	TxStatusVoided    = "voided"
)

const (
	PaymentCash     = "cash"
	PaymentQRIS     = "qris"
	PaymentTransfer = "transfer"
)

type TenantConfig struct {
	BusinessType   string   `json:"business_type"`
	PaymentMethods []string `json:"payment_methods"`
}

type Tenant struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Subdomain string       `json:"subdomain"`
	Address   string       `json:"address,omitempty"`
	Phone     string       `json:"phone,omitempty"`
	Config    TenantConfig `json:"config"`
	CreatedAt time.Time    `json:"created_at"`
}

type User struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	Status       string    `json:"status"`
	InvitedBy    string    `json:"invited_by,omitempty"`
	InviteToken  string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Item struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// TransactionLine carries the item name and price as they were at the time
// of sale. Later catalog edits never change a recorded line.
type TransactionLine struct {
	ItemID   string `json:"item_id"`
	Name     string `json:"name"`
	Qty      int    `json:"qty"`
	Price    int64  `json:"price"`
	Subtotal int64  `json:"subtotal"`
}

type Transaction struct {
	ID                string            `json:"id"`
	TenantID          string            `json:"tenant_id"`
	TransactionNumber string            `json:"transaction_number"`
	Items             []TransactionLine `json:"items"`
	Total             int64             `json:"total"`
	PaymentMethod     string            `json:"payment_method"`
	PaymentAmount     int64             `json:"payment_amount"`
	ChangeAmount      int64             `json:"change_amount"`
	PaymentReference  string            `json:"payment_reference,omitempty"`
	Status            string            `json:"status"`
	VoidedAt          *time.Time        `json:"voided_at,omitempty"`
	VoidedBy          string            `json:"voided_by,omitempty"`
	VoidReason        string            `json:"void_reason,omitempty"`
	CreatedBy         string            `json:"created_by"`
	CreatedByName     string            `json:"created_by_name"`
	CreatedAt         time.Time         `json:"created_at"`
}

// Principal is the authenticated caller carried through request context.
type Principal struct {
	UserID   string
	TenantID string
	Name     string
	Email    string
	Role     string
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token  string      `json:"token"`
	User   UserProfile `json:"user"`
	Tenant TenantInfo  `json:"tenant"`
}

type UserProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type TenantInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Subdomain string `json:"subdomain"`
	Address   string `json:"address,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

type PasswordChangeRequest struct {
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

type ItemCreateRequest struct {
	Name  string `json:"name" validate:"required"`
	Price int64  `json:"price" validate:"required,gt=0"`
}

type ItemUpdateRequest struct {
	Name  *string `json:"name,omitempty"`
	Price *int64  `json:"price,omitempty"`
}

type CartLine struct {
	ItemID string `json:"item_id" validate:"required"`
	Qty    int    `json:"qty" validate:"required,gte=1"`
}

type TransactionCreateRequest struct {
	Items            []CartLine `json:"items" validate:"required,min=1,dive"`
	PaymentMethod    string     `json:"payment_method" validate:"required"`
	PaymentAmount    int64      `json:"payment_amount"`
	PaymentReference string     `json:"payment_reference,omitempty"`
}

type TransactionVoidRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// Receipt is the printable header attached to transaction responses.
type Receipt struct {
	BusinessName string `json:"business_name"`
	Address      string `json:"address"`
	Phone        string `json:"phone"`
}

type TransactionDetail struct {
	Transaction Transaction `json:"transaction"`
	Receipt     Receipt     `json:"receipt"`
}

type TransactionPage struct {
	Transactions []Transaction `json:"transactions"`
	Total        int64         `json:"total"`
}

type ReportPeriod struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type PaymentBucket struct {
	Count  int   `json:"count"`
	Amount int64 `json:"amount"`
}

type ItemStat struct {
	Name    string `json:"name"`
	Qty     int    `json:"qty"`
	Revenue int64  `json:"revenue"`
}

type DailyBucket struct {
	Transactions int   `json:"transactions"`
	Amount       int64 `json:"amount"`
}

type SummaryTotals struct {
	TotalSales          int64  `json:"total_sales"`
	TotalSalesFormatted string `json:"total_sales_formatted"`
	TotalTransactions   int    `json:"total_transactions"`
	TotalItemsSold      int    `json:"total_items_sold"`
	AvgTransaction      int64  `json:"avg_transaction"`
}

type SummaryReport struct {
	Period           ReportPeriod             `json:"period"`
	Summary          SummaryTotals            `json:"summary"`
	PaymentBreakdown map[string]PaymentBucket `json:"payment_breakdown"`
	TopItems         []ItemStat               `json:"top_items"`
	DailySales       map[string]DailyBucket   `json:"daily_sales"`
}

type DailyTotals struct {
	TotalSales          int64  `json:"total_sales"`
	TotalSalesFormatted string `json:"total_sales_formatted"`
	TotalTransactions   int    `json:"total_transactions"`
	TotalVoided         int    `json:"total_voided"`
	VoidedAmount        int64  `json:"voided_amount"`
}

type DailyReport struct {
	Date         string        `json:"date"`
	Summary      DailyTotals   `json:"summary"`
	Transactions []Transaction `json:"transactions"`
}

type DashboardToday struct {
	Date                string     `json:"date"`
	TotalSales          int64      `json:"total_sales"`
	TotalSalesFormatted string     `json:"total_sales_formatted"`
	TotalTransactions   int        `json:"total_transactions"`
	TotalItemsSold      int        `json:"total_items_sold"`
	TopItems            []ItemStat `json:"top_items"`
}

// ExportRow is one flattened transaction for report export. Voided
// transactions are included so exports reconcile against the full ledger.
type ExportRow struct {
	TransactionNumber string `json:"transaction_number"`
	Date              string `json:"date"`
	Time              string `json:"time"`
	Items             string `json:"items"`
	Total             int64  `json:"total"`
	PaymentMethod     string `json:"payment_method"`
	Status            string `json:"status"`
	Cashier           string `json:"cashier"`
}

type ExportReport struct {
	Format       string       `json:"format"`
	Period       ReportPeriod `json:"period"`
	TotalRecords int          `json:"total_records"`
	Data         []ExportRow  `json:"data"`
}

type ExportCSV struct {
	Format   string `json:"format"`
	Data     string `json:"data"`
	Filename string `json:"filename"`
}

type SettingsUpdateRequest struct {
	Name    *string `json:"name,omitempty"`
	Address *string `json:"address,omitempty"`
	Phone   *string `json:"phone,omitempty"`
}

type UserInviteRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role,omitempty"`
}

type UserInviteResponse struct {
	User        UserProfileWithStatus `json:"user"`
	InviteToken string                `json:"invite_token"`
	InviteLink  string                `json:"invite_link"`
	Message     string                `json:"message"`
}

type UserProfileWithStatus struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Status string `json:"status"`
}

type AcceptInviteRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

type AcceptInviteResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    UserProfile `json:"user"`
	Tenant  TenantInfo  `json:"tenant"`
}

type InviteInfo struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	TenantName string `json:"tenant_name"`
	InvitedBy  string `json:"invited_by"`
}

type UserUpdateRequest struct {
	Name     *string `json:"name,omitempty"`
	Role     *string `json:"role,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

type UserPage struct {
	Users []User `json:"users"`
	Total int    `json:"total"`
}

type SubdomainCheck struct {
	Exists bool       `json:"exists"`
	Tenant TenantInfo `json:"tenant"`
}

type OnboardRequest struct {
	Message   string `json:"message" validate:"required"`
	SessionID string `json:"session_id,omitempty"`
}

type OnboardItem struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

type OnboardUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	TempPassword string `json:"temp_password"`
}

type OnboardResponse struct {
	Status    string        `json:"status"`
	Message   string        `json:"message"`
	SessionID string        `json:"session_id"`
	Tenant    *TenantInfo   `json:"tenant,omitempty"`
	User      *OnboardUser  `json:"user,omitempty"`
	Items     []OnboardItem `json:"items,omitempty"`
	Token     string        `json:"token,omitempty"`
}
