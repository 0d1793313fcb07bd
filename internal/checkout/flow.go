package checkout

import (
	"context"
	"errors"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marianareyesgonzalez4/boton-magico-creador-sub000/internal/api"
	"github.com/marianareyesgonzalez4/boton-magico-creador-sub000/internal/cart"
	"github.com/marianareyesgonzalez4/boton-magico-creador-sub000/internal/logger"
	"github.com/marianareyesgonzalez4/boton-magico-creador-sub000/internal/models"
	"github.com/marianareyesgonzalez4/boton-magico-creador-sub000/internal/pricing"
)

// State 下单流程状态
type State string

// 状态常量：Idle -> Validating -> Submitting -> Confirmed/Failed
const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateSubmitting State = "submitting"
	StateConfirmed  State = "confirmed"
	StateFailed     State = "failed"
)

// ErrSubmitInFlight 已有一次提交在途
var ErrSubmitInFlight = errors.New("checkout: submission already in flight")

// Flow 下单流程
// 校验通过前不发起任何网络调用；创建成功确认后才清空购物车，
// 失败时购物车保持原状，可从头重试
type Flow struct {
	mu    sync.Mutex
	state State

	carts    *cart.Manager
	orders   *api.OrderClient
	validate *validator.Validate
	taxRate  decimal.Decimal
}

// NewFlow 创建下单流程
func NewFlow(carts *cart.Manager, orders *api.OrderClient, taxRate decimal.Decimal) *Flow {
	if taxRate.IsZero() {
		taxRate = pricing.DefaultTaxRate
	}
	return &Flow{
		state:    StateIdle,
		carts:    carts,
		orders:   orders,
		validate: newValidator(),
		taxRate:  taxRate,
	}
}

// State 返回当前状态
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Submit 提交结算
// 返回已确认订单（含订单标识）；校验失败返回 *ValidationError
func (f *Flow) Submit(ctx context.Context, input Input) (*models.Order, error) {
	if !f.begin() {
		return nil, ErrSubmitInFlight
	}

	if validationErr := validateInput(f.validate, input); validationErr != nil {
		f.setState(StateIdle)
		return nil, validationErr
	}

	activeCart, err := f.carts.ActiveCart(ctx)
	if err != nil {
		f.setState(StateFailed)
		return nil, err
	}
	if activeCart == nil || len(activeCart.Lines) == 0 {
		f.setState(StateIdle)
		return nil, &ValidationError{Fields: []FieldError{{Field: "cart", Message: "cart is empty"}}}
	}

	request := buildOrderRequest(input, activeCart)
	f.setState(StateSubmitting)

	order, err := f.orders.Create(ctx, request)
	if err != nil {
		// 购物车保持原状，流程可重试
		f.setState(StateFailed)
		return nil, err
	}

	f.finalizeOrder(order, request, activeCart)

	if err := f.carts.ClearActive(ctx); err != nil {
		// 订单已确认，清空失败只记日志，不回滚确认结果
		logger.Warnw("checkout_clear_cart_failed", "order_id", order.ID, "error", err)
	}
	f.setState(StateConfirmed)
	return order, nil
}

// Reset 将流程复位到 Idle
func (f *Flow) Reset() {
	f.setState(StateIdle)
}

// begin 进入 Validating；已有在途提交时拒绝
func (f *Flow) begin() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateValidating || f.state == StateSubmitting {
		return false
	}
	f.state = StateValidating
	return true
}

func (f *Flow) setState(state State) {
	f.mu.Lock()
	f.state = state
	f.mu.Unlock()
}

// buildOrderRequest 组装订单创建请求（单价在此冻结）
func buildOrderRequest(input Input, activeCart *models.Cart) api.CreateOrderRequest {
	items := make([]models.OrderItem, 0, len(activeCart.Lines))
	for _, line := range activeCart.Lines {
		items = append(items, models.OrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}
	return api.CreateOrderRequest{
		ShippingAddress: models.Address{
			FullName:   input.FullName,
			Address:    input.Address,
			City:       input.City,
			PostalCode: input.PostalCode,
			Phone:      input.Phone,
		},
		PaymentMethod: input.PaymentMethod,
		OrderDetails:  items,
	}
}

// finalizeOrder 补全服务端未回传的字段，金额口径与购物车展示一致
func (f *Flow) finalizeOrder(order *models.Order, request api.CreateOrderRequest, activeCart *models.Cart) {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.Status == "" {
		order.Status = models.OrderStatusConfirmed
	}
	if len(order.Items) == 0 {
		order.Items = request.OrderDetails
	}
	order.ShippingAddress = request.ShippingAddress
	order.PaymentMethod = request.PaymentMethod

	if order.Total.IsZero() {
		totals := pricing.ComputeOrderTotals(activeCart.Total, f.taxRate)
		order.Subtotal = totals.Subtotal
		order.Shipping = totals.Shipping
		order.Tax = totals.Tax
		order.Total = totals.Total
	}
}
