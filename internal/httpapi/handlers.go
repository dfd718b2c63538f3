package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"aikasir/backend/internal/domain"
	"aikasir/backend/internal/report"
	"aikasir/backend/internal/service"
)

func principalFor(user *domain.User) domain.Principal {
	return domain.Principal{
		UserID:   user.ID,
		TenantID: user.TenantID,
		Name:     user.Name,
		Email:    user.Email,
		Role:     user.Role,
	}
}

func userProfile(user *domain.User) domain.UserProfile {
	return domain.UserProfile{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}
}

func tenantInfo(tenant *domain.Tenant) domain.TenantInfo {
	return domain.TenantInfo{
		ID:        tenant.ID,
		Name:      tenant.Name,
		Subdomain: tenant.Subdomain,
		Address:   tenant.Address,
		Phone:     tenant.Phone,
	}
}

func (a *API) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"message": "AIKasir API v1.0", "status": "running"})
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "healthy"})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, a.log, http.StatusBadRequest, "invalid_argument", err)
		return
	}

	key := strings.ToLower(strings.TrimSpace(req.Email))
	if !a.loginLimiter.Allow(key) {
		writeError(w, a.log, http.StatusTooManyRequests, "rate_limited", errors.New("too many login attempts"))
		return
	}

	user, tenant, err := a.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		a.loginLimiter.Record(key)
		a.writeServiceError(w, err)
		return
	}
	a.loginLimiter.Reset(key)

	token, err := a.auth.Sign(user.ID, user.TenantID)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domain.LoginResponse{
		Token:  token,
		User:   userProfile(user),
		Tenant: tenantInfo(tenant),
	})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	user, tenant, err := a.service.Me(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":   userProfile(user),
		"tenant": tenant,
	})
}

func (a *API) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req domain.PasswordChangeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, a.log, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	if err := a.service.ChangePassword(r.Context(), req.NewPassword); err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Password berhasil diubah"})
}

func (a *API) handleListItems(w http.ResponseWriter, r *http.Request) {
	activeOnly := true
	if raw := r.URL.Query().Get("active_only"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err == nil {
			activeOnly = parsed
		}
	}

	items, err := a.service.ListItems(r.Context(), activeOnly, r.URL.Query().Get("search"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})
}

func (a *API) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req domain.ItemCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, a.log, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	item, err := a.service.CreateItem(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (a *API) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var req domain.ItemUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, a.log, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	item, err := a.service.UpdateItem(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (a *API) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := a.service.DeactivateItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Barang berhasil dihapus"})
}

func (a *API) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))
	offset, _ := strconv.Atoi(query.Get("offset"))

	page, err := a.service.ListTransactions(r.Context(), query.Get("date"), limit, offset)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (a *API) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req domain.TransactionCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, a.log, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	detail, err := a.service.CreateTransaction(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, detail)
}

func (a *API) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	detail, err := a.service.GetTransaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (a *API) handleVoidTransaction(w http.ResponseWriter, r *http.Request) {
	var req domain.TransactionVoidRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, a.log, http.StatusBadRequest, "invalid_argument", err)
		return
	}

	voided, err := a.service.VoidTransaction(r.Context(), chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}

	voidedBy := ""
	if principal, ok := service.PrincipalFromContext(r.Context()); ok {
		voidedBy = principal.Name
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":        "Transaksi berhasil dibatalkan",
		"transaction_id": voided.ID,
		"voided_by":      voidedBy,
		"reason":         voided.VoidReason,
	})
}

func (a *API) handleReportSummary(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	summary, err := a.service.SummaryReport(r.Context(), query.Get("start_date"), query.Get("end_date"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (a *API) handleReportDaily(w http.ResponseWriter, r *http.Request) {
	daily, err := a.service.DailyReport(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, daily)
}

func (a *API) handleReportExport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	result, err := a.service.ExportRows(r.Context(), query.Get("start_date"), query.Get("end_date"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}

	if query.Get("format") == "csv" {
		data, err := report.ExportCSV(result.Data)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, domain.ExportCSV{
			Format:   "csv",
			Data:     data,
			Filename: fmt.Sprintf("laporan_%s_to_%s.csv", result.Period.StartDate, result.Period.EndDate),
		})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) handleDashboardToday(w http.ResponseWriter, r *http.Request) {
	dashboard, err := a.service.DashboardToday(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

func (a *API) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	tenant, err := a.service.Settings(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tenant)
}

func (a *API) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req domain.SettingsUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, a.log, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	tenant, err := a.service.UpdateSettings(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tenant)
}

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := a.service.ListTenantUsers(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (a *API) handleInviteUser(w http.ResponseWriter, r *http.Request) {
	var req domain.UserInviteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, a.log, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	invite, err := a.service.InviteUser(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, invite)
}

func (a *API) handleAcceptInvite(w http.ResponseWriter, r *http.Request) {
	var req domain.AcceptInviteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, a.log, http.StatusBadRequest, "invalid_argument", err)
		return
	}

	user, tenant, err := a.service.AcceptInvite(r.Context(), req.Token, req.Password)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	token, err := a.auth.Sign(user.ID, user.TenantID)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domain.AcceptInviteResponse{
		Message: "Selamat datang! Akun kamu sudah aktif",
		Token:   token,
		User:    userProfile(user),
		Tenant:  tenantInfo(tenant),
	})
}

func (a *API) handleInviteInfo(w http.ResponseWriter, r *http.Request) {
	info, err := a.service.InviteInfo(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (a *API) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req domain.UserUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, a.log, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	user, err := a.service.UpdateTenantUser(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := a.service.DisableTenantUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Karyawan berhasil dihapus"})
}

func (a *API) handleCheckSubdomain(w http.ResponseWriter, r *http.Request) {
	tenant, err := a.service.TenantBySubdomain(r.Context(), chi.URLParam(r, "subdomain"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.SubdomainCheck{
		Exists: true,
		Tenant: domain.TenantInfo{ID: tenant.ID, Name: tenant.Name, Subdomain: tenant.Subdomain},
	})
}

func (a *API) handleTenantBySubdomain(w http.ResponseWriter, r *http.Request) {
	tenant, err := a.service.TenantBySubdomain(r.Context(), chi.URLParam(r, "subdomain"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tenantInfo(tenant))
}

func (a *API) handleOnboard(w http.ResponseWriter, r *http.Request) {
	if a.assistant == nil {
		writeError(w, a.log, http.StatusServiceUnavailable, "unavailable", errors.New("onboarding assistant is not configured"))
		return
	}

	var req domain.OnboardRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, a.log, http.StatusBadRequest, "invalid_argument", err)
		return
	}

	outcome, err := a.assistant.Handle(r.Context(), req.SessionID, req.Message)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}

	if !outcome.Complete {
		writeJSON(w, http.StatusOK, domain.OnboardResponse{
			Status:    "continue",
			Message:   outcome.Message,
			SessionID: outcome.SessionID,
		})
		return
	}

	result, err := a.service.ProvisionTenant(r.Context(),
		outcome.Data.BusinessType, outcome.Data.BusinessName, outcome.Data.Items, outcome.Data.Email)
	if err != nil {
		if errors.Is(err, service.ErrEmailRegistered) {
			writeJSON(w, http.StatusOK, domain.OnboardResponse{
				Status:    "continue",
				Message:   "Email sudah terdaftar. Coba pakai email lain ya!",
				SessionID: outcome.SessionID,
			})
			return
		}
		a.writeServiceError(w, err)
		return
	}

	token, err := a.auth.Sign(result.Owner.ID, result.Tenant.ID)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domain.OnboardResponse{
		Status:    "complete",
		Message:   outcome.Message,
		SessionID: outcome.SessionID,
		Tenant: &domain.TenantInfo{
			ID:        result.Tenant.ID,
			Name:      result.Tenant.Name,
			Subdomain: result.Tenant.Subdomain,
		},
		User: &domain.OnboardUser{
			ID:           result.Owner.ID,
			Email:        result.Owner.Email,
			TempPassword: result.TempPassword,
		},
		Items: result.Items,
		Token: token,
	})
}
