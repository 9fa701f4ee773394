package draft

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"CreditDesk/internal/model"
	"CreditDesk/pkg/ringlog"
)

// DefaultDebounce 去抖窗口：每次输入重置计时，安静 2 秒后才真正保存
const DefaultDebounce = 2 * time.Second

// Coordinator 把表单的变更流桥接到远端进度存储
//
// 生命周期：挂载后 Restore 一次拉回上次进度；之后每次 Change 重置去抖计时；
// 离开页面或切步时 Close/SetStep 同步冲刷挂起的保存，最后几个按键不能丢。
// 所有存储失败只记日志，绝不往上抛，最坏结果是用户从第 1 步重来
type Coordinator struct {
	form  Form
	store Store
	email string

	clock    clock.Clock
	debounce time.Duration
	logger   *zap.Logger
	diag     ringlog.Sink

	mu           sync.Mutex
	timer        *clock.Timer
	dirty        bool
	closed       bool
	edited       bool // Restore 之后是否出现过本地编辑
	restored     bool // 一次性标志，重复 Restore 不再发起网络读
	restoredStep int
	currentStep  string
	flowType     string
}

// Option 配置协调器
type Option func(*Coordinator)

// WithClock 注入时钟，测试用 mock clock 驱动去抖
func WithClock(c clock.Clock) Option {
	return func(co *Coordinator) { co.clock = c }
}

// WithDebounce 覆盖去抖窗口
func WithDebounce(d time.Duration) Option {
	return func(co *Coordinator) { co.debounce = d }
}

// WithLogger 注入日志器
func WithLogger(l *zap.Logger) Option {
	return func(co *Coordinator) { co.logger = l }
}

// WithDiagnosticSink 注入诊断日志环
func WithDiagnosticSink(s ringlog.Sink) Option {
	return func(co *Coordinator) { co.diag = s }
}

// WithFlowType 指定建档路径（新企业 / 存量企业）
func WithFlowType(flowType string) Option {
	return func(co *Coordinator) { co.flowType = flowType }
}

func NewCoordinator(form Form, store Store, email string, opts ...Option) *Coordinator {
	c := &Coordinator{
		form:        form,
		store:       store,
		email:       email,
		clock:       clock.New(),
		debounce:    DefaultDebounce,
		logger:      zap.NewNop(),
		diag:        ringlog.Nop{},
		flowType:    string(model.FlowTypeNewBusiness),
		currentStep: model.StepPersonalDetails,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Change 表单变更回调：重置去抖计时，安静期满后触发一次保存
func (c *Coordinator) Change() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.edited = true
	c.dirty = true

	if c.timer != nil {
		c.timer.Reset(c.debounce)
		return
	}
	c.timer = c.clock.AfterFunc(c.debounce, c.debounceFired)
}

func (c *Coordinator) debounceFired() {
	c.mu.Lock()
	if c.closed || !c.dirty {
		c.timer = nil
		c.mu.Unlock()
		return
	}
	c.dirty = false
	c.timer = nil
	step := c.currentStep
	c.mu.Unlock()

	c.save(context.Background(), step)
}

// Save 立即保存当前快照，失败记日志后吞掉
func (c *Coordinator) Save(ctx context.Context) {
	c.mu.Lock()
	c.dirty = false
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	step := c.currentStep
	c.mu.Unlock()

	c.save(ctx, step)
}

func (c *Coordinator) save(ctx context.Context, step string) {
	if c.email == "" {
		c.logger.Debug("Skipping draft save, no authenticated user")
		return
	}

	snapshot := Clone(c.form.Values())

	if err := c.store.UpdateStep(ctx, c.email, step, c.flowType, snapshot); err != nil {
		c.logger.Warn("Failed to save draft progress",
			zap.String("step", step),
			zap.Error(err),
		)
		c.diag.Append(ctx, "draft save failed at "+step+": "+err.Error())
		return
	}

	c.diag.Append(ctx, "draft saved at "+step)
}

// Restore 拉回上次进度并回填表单，返回应该展示的步骤号
//
// 幂等：同一个协调器只发起一次远端读，之后的调用直接返回上次结果。
// 未登录、未命中、任何失败都回到第 1 步的干净表单，绝不留下回填一半的状态。
// 响应抵达前用户已开始输入的话，这份旧快照会被丢弃而不是覆盖新编辑
func (c *Coordinator) Restore(ctx context.Context) int {
	c.mu.Lock()
	if c.restored {
		step := c.restoredStep
		c.mu.Unlock()
		return step
	}
	c.restored = true
	c.restoredStep = model.FirstStepNumber
	email := c.email
	c.mu.Unlock()

	if email == "" {
		return model.FirstStepNumber
	}

	rec, err := c.store.GetByEmail(ctx, email)
	if err != nil {
		c.logger.Warn("Failed to restore draft progress", zap.Error(err))
		c.diag.Append(ctx, "draft restore failed: "+err.Error())
		c.form.Reset()
		return model.FirstStepNumber
	}
	if rec == nil || len(rec.Snapshot) == 0 {
		return model.FirstStepNumber
	}

	c.mu.Lock()
	if c.edited {
		// 慢响应竞争：本地已有新编辑，旧快照直接作废
		step := model.StepNumber(c.currentStep)
		c.restoredStep = step
		c.mu.Unlock()

		c.logger.Info("Discarding stale draft restore after local edits")
		c.diag.Append(ctx, "stale draft restore discarded")
		return step
	}
	c.currentStep = rec.CurrentStep
	if rec.FlowType != "" {
		c.flowType = rec.FlowType
	}
	c.restoredStep = model.StepNumber(rec.CurrentStep)
	step := c.restoredStep
	c.mu.Unlock()

	normalized := Normalize(rec.Snapshot)

	c.form.Reset()
	applyLeaves(c.form, "", normalized)

	c.diag.Append(ctx, "draft restored at "+rec.CurrentStep)
	return step
}

// applyLeaves 逐叶子回填，嵌套对象展开成点号路径
func applyLeaves(form Form, prefix string, node map[string]interface{}) {
	for key, value := range node {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		if child, ok := value.(map[string]interface{}); ok {
			applyLeaves(form, path, child)
			continue
		}
		form.Set(path, value)
	}
}

// SetStep 切换步骤：先冲刷挂起的保存（仍记在旧步骤上），再更新标签
func (c *Coordinator) SetStep(ctx context.Context, stepID string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	var flushStep string
	if c.dirty {
		c.dirty = false
		if c.timer != nil {
			c.timer.Stop()
			c.timer = nil
		}
		flushStep = c.currentStep
	}
	c.currentStep = stepID
	c.mu.Unlock()

	if flushStep != "" {
		c.save(ctx, flushStep)
	}
}

// Clear 建档完成或主动放弃：远端写一份第 1 步的空快照，失败吞掉
func (c *Coordinator) Clear(ctx context.Context) {
	c.mu.Lock()
	c.dirty = false
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.currentStep = model.StepPersonalDetails
	c.mu.Unlock()

	if c.email == "" {
		return
	}

	if err := c.store.UpdateStep(ctx, c.email, model.StepPersonalDetails, c.flowType, map[string]interface{}{}); err != nil {
		c.logger.Warn("Failed to clear draft progress", zap.Error(err))
		c.diag.Append(ctx, "draft clear failed: "+err.Error())
	}
}

// Close 卸载前同步冲刷挂起的保存，之后协调器不再接受变更
func (c *Coordinator) Close(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true

	flush := c.dirty
	c.dirty = false
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	step := c.currentStep
	c.mu.Unlock()

	if flush {
		c.save(ctx, step)
	}
}
