package server

import (
	"context"
	"encoding/json"

	"tokyojung/internal/auth"
	"tokyojung/internal/menu"
	"tokyojung/internal/models"
	"tokyojung/internal/orders"
)

// registry declares the full procedure surface. Names are stable wire
// contract; the dashboard and the customer app call them directly.
func (s *Server) registry() map[string]procedure {
	return map[string]procedure{
		// auth.*
		"auth.login": {access: auth.Public, kind: mutation, handle: s.authLogin},
		"auth.me":    {access: auth.Public, kind: query, handle: s.authMe},

		// menu.*
		"menu.getAll":             {access: auth.Public, kind: query, handle: s.menuGetAll},
		"menu.getById":            {access: auth.Public, kind: query, handle: s.menuGetByID},
		"menu.getAllForStaff":     {access: auth.Staff, kind: query, handle: s.menuGetAllForStaff},
		"menu.create":             {access: auth.Admin, kind: mutation, handle: s.menuCreate},
		"menu.update":             {access: auth.Admin, kind: mutation, handle: s.menuUpdate},
		"menu.updateAvailability": {access: auth.Staff, kind: mutation, handle: s.menuUpdateAvailability},
		"menu.delete":             {access: auth.Admin, kind: mutation, handle: s.menuDelete},

		// orders.*
		"orders.create":           {access: auth.Public, kind: mutation, handle: s.ordersCreate},
		"orders.getById":          {access: auth.Public, kind: query, handle: s.ordersGetByID},
		"orders.getByQueueNumber": {access: auth.Public, kind: query, handle: s.ordersGetByQueueNumber},
		"orders.getAll":           {access: auth.Staff, kind: query, handle: s.ordersGetAll},
		"orders.pay":              {access: auth.Staff, kind: mutation, handle: s.ordersTransition(orders.EventPay)},
		"orders.startPrep":        {access: auth.Staff, kind: mutation, handle: s.ordersTransition(orders.EventStartPrep)},
		"orders.markReady":        {access: auth.Staff, kind: mutation, handle: s.ordersTransition(orders.EventMarkReady)},
		"orders.complete":         {access: auth.Staff, kind: mutation, handle: s.ordersTransition(orders.EventComplete)},
		"orders.cancel":           {access: auth.Staff, kind: mutation, handle: s.ordersTransition(orders.EventCancel)},

		// reports.*
		"reports.getTodayStats": {access: auth.Staff, kind: query, handle: s.reportsTodayStats},
		"reports.getDaily":      {access: auth.Staff, kind: query, handle: s.reportsGetDaily},
		"reports.getMenuItems":  {access: auth.Staff, kind: query, handle: s.reportsGetMenuItems},
		"reports.getPeriod":     {access: auth.Staff, kind: query, handle: s.reportsGetPeriod},
		"reports.export":        {access: auth.Staff, kind: mutation, deadline: exportDeadline, handle: s.reportsExport},

		// user.*
		"user.getProfile":     {access: auth.Staff, kind: query, handle: s.userGetProfile},
		"user.updateProfile":  {access: auth.Staff, kind: mutation, handle: s.userUpdateProfile},
		"user.changePassword": {access: auth.Staff, kind: mutation, handle: s.userChangePassword},
		"user.create":         {access: auth.Admin, kind: mutation, handle: s.userCreate},
	}
}

// auth.*

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) authLogin(ctx context.Context, _ *models.Principal, input json.RawMessage) (any, error) {
	in, err := decode[loginInput](input)
	if err != nil {
		return nil, err
	}
	return s.auth.Login(ctx, in.Email, in.Password)
}

func (s *Server) authMe(_ context.Context, principal *models.Principal, _ json.RawMessage) (any, error) {
	return principal, nil
}

// menu.*

func (s *Server) menuGetAll(ctx context.Context, _ *models.Principal, _ json.RawMessage) (any, error) {
	return s.menu.GetAll(ctx)
}

func (s *Server) menuGetAllForStaff(ctx context.Context, _ *models.Principal, _ json.RawMessage) (any, error) {
	return s.menu.GetAllForStaff(ctx)
}

func (s *Server) menuGetByID(ctx context.Context, _ *models.Principal, input json.RawMessage) (any, error) {
	id, err := decode[int64](input)
	if err != nil {
		return nil, err
	}
	return s.menu.GetByID(ctx, id)
}

func (s *Server) menuCreate(ctx context.Context, _ *models.Principal, input json.RawMessage) (any, error) {
	in, err := decode[menu.CreateInput](input)
	if err != nil {
		return nil, err
	}
	return s.menu.Create(ctx, in)
}

type menuUpdateInput struct {
	ID int64 `json:"id"`
	menu.UpdateInput
}

func (s *Server) menuUpdate(ctx context.Context, _ *models.Principal, input json.RawMessage) (any, error) {
	in, err := decode[menuUpdateInput](input)
	if err != nil {
		return nil, err
	}
	return s.menu.Update(ctx, in.ID, in.UpdateInput)
}

type availabilityInput struct {
	ID        int64  `json:"id"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

func (s *Server) menuUpdateAvailability(ctx context.Context, _ *models.Principal, input json.RawMessage) (any, error) {
	in, err := decode[availabilityInput](input)
	if err != nil {
		return nil, err
	}
	return s.menu.UpdateAvailability(ctx, in.ID, in.Available, in.Reason)
}

func (s *Server) menuDelete(ctx context.Context, _ *models.Principal, input json.RawMessage) (any, error) {
	id, err := decode[int64](input)
	if err != nil {
		return nil, err
	}
	if err := s.menu.Delete(ctx, id); err != nil {
		return nil, err
	}
	return map[string]bool{"success": true}, nil
}

// orders.*

func (s *Server) ordersCreate(ctx context.Context, _ *models.Principal, input json.RawMessage) (any, error) {
	in, err := decode[models.CreateOrderRequest](input)
	if err != nil {
		return nil, err
	}
	return s.orders.Create(ctx, in)
}

func (s *Server) ordersGetByID(ctx context.Context, _ *models.Principal, input json.RawMessage) (any, error) {
	id, err := decode[int64](input)
	if err != nil {
		return nil, err
	}
	return s.orders.GetByID(ctx, id)
}

type queueNumberInput struct {
	QueueNumber  int    `json:"queueNumber"`
	BusinessDate string `json:"businessDate,omitempty"`
}

func (s *Server) ordersGetByQueueNumber(ctx context.Context, _ *models.Principal, input json.RawMessage) (any, error) {
	// A bare number means today's queue; an object may pin the business
	// date, since queue numbers recycle daily.
	if n, err := decode[int](input); err == nil && n != 0 {
		return s.orders.GetByQueueNumber(ctx, n, "")
	}
	in, err := decode[queueNumberInput](input)
	if err != nil {
		return nil, err
	}
	return s.orders.GetByQueueNumber(ctx, in.QueueNumber, in.BusinessDate)
}

type listOrdersInput struct {
	Status *models.OrderStatus `json:"status,omitempty"`
	Limit  int                 `json:"limit,omitempty"`
}

func (s *Server) ordersGetAll(ctx context.Context, _ *models.Principal, input json.RawMessage) (any, error) {
	in, err := decode[listOrdersInput](input)
	if err != nil {
		return nil, err
	}
	return s.orders.List(ctx, in.Status, in.Limit)
}

type transitionInput struct {
	ID            int64                 `json:"id"`
	PaymentMethod *models.PaymentMethod `json:"paymentMethod,omitempty"`
}

func (s *Server) ordersTransition(event orders.TransitionEvent) func(context.Context, *models.Principal, json.RawMessage) (any, error) {
	return func(ctx context.Context, principal *models.Principal, input json.RawMessage) (any, error) {
		in, err := decode[transitionInput](input)
		if err != nil {
			return nil, err
		}
		return s.orders.Transition(ctx, in.ID, event, principal, in.PaymentMethod)
	}
}

// reports.*

func (s *Server) reportsTodayStats(ctx context.Context, _ *models.Principal, _ json.RawMessage) (any, error) {
	return s.reports.TodayStats(ctx)
}

type dailyInput struct {
	Days int `json:"days,omitempty"`
}

func (s *Server) reportsGetDaily(ctx context.Context, _ *models.Principal, input json.RawMessage) (any, error) {
	in, err := decode[dailyInput](input)
	if err != nil {
		return nil, err
	}
	return s.reports.Daily(ctx, in.Days)
}

type periodInput struct {
	Period string `json:"period,omitempty"`
}

func (s *Server) reportsGetMenuItems(ctx context.Context, _ *models.Principal, input json.RawMessage) (any, error) {
	in, err := decode[periodInput](input)
	if err != nil {
		return nil, err
	}
	return s.reports.MenuItems(ctx, in.Period)
}

func (s *Server) reportsGetPeriod(ctx context.Context, _ *models.Principal, input json.RawMessage) (any, error) {
	in, err := decode[periodInput](input)
	if err != nil {
		return nil, err
	}
	return s.reports.Period(ctx, in.Period)
}

type exportInput struct {
	Period string `json:"period"`
	Format string `json:"format"`
}

func (s *Server) reportsExport(ctx context.Context, _ *models.Principal, input json.RawMessage) (any, error) {
	in, err := decode[exportInput](input)
	if err != nil {
		return nil, err
	}
	return s.reports.Export(ctx, in.Period, in.Format)
}

// user.*

func (s *Server) userGetProfile(ctx context.Context, principal *models.Principal, _ json.RawMessage) (any, error) {
	return s.users.Profile(ctx, principal.UserID)
}

type updateProfileInput struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

func (s *Server) userUpdateProfile(ctx context.Context, principal *models.Principal, input json.RawMessage) (any, error) {
	in, err := decode[updateProfileInput](input)
	if err != nil {
		return nil, err
	}
	return s.users.UpdateProfile(ctx, principal.UserID, in.Name, in.Email)
}

type changePasswordInput struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (s *Server) userChangePassword(ctx context.Context, principal *models.Principal, input json.RawMessage) (any, error) {
	in, err := decode[changePasswordInput](input)
	if err != nil {
		return nil, err
	}
	if err := s.users.ChangePassword(ctx, principal.UserID, in.CurrentPassword, in.NewPassword); err != nil {
		return nil, err
	}
	return map[string]bool{"success": true}, nil
}

type createUserInput struct {
	Email    string      `json:"email"`
	Name     string      `json:"name"`
	Role     models.Role `json:"role"`
	Password string      `json:"password"`
}

func (s *Server) userCreate(ctx context.Context, _ *models.Principal, input json.RawMessage) (any, error) {
	in, err := decode[createUserInput](input)
	if err != nil {
		return nil, err
	}
	return s.users.Create(ctx, in.Email, in.Name, in.Role, in.Password)
}
