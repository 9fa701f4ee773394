package draft

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"CreditDesk/internal/model"
)

func newTestCoordinator(t *testing.T, email string) (*Coordinator, *MemoryStore, *MapForm, *clock.Mock) {
	t.Helper()

	store := NewMemoryStore()
	form := NewMapForm()
	mock := clock.NewMock()
	c := NewCoordinator(form, store, email, WithClock(mock))
	return c, store, form, mock
}

func TestDebounceCollapsesRapidChanges(t *testing.T) {
	c, store, form, mock := newTestCoordinator(t, "user@example.com")

	form.Set("personalDetails.firstName", "J")
	c.Change()
	mock.Add(500 * time.Millisecond)

	form.Set("personalDetails.firstName", "Jo")
	c.Change()
	mock.Add(500 * time.Millisecond)

	form.Set("personalDetails.firstName", "Joe")
	c.Change()

	// 最后一次变更后不满 2 秒，不应触发保存
	mock.Add(1900 * time.Millisecond)
	require.Equal(t, 0, store.UpdateCalls)

	mock.Add(100 * time.Millisecond)
	require.Equal(t, 1, store.UpdateCalls)

	rec, err := store.GetByEmail(context.Background(), "user@example.com")
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, "Joe", rec.Snapshot["personalDetails"].(map[string]interface{})["firstName"])
}

func TestCloseFlushesPendingSave(t *testing.T) {
	c, store, form, _ := newTestCoordinator(t, "user@example.com")

	form.Set("personalDetails.lastName", "Doe")
	c.Change()

	// 不推进时钟，Close 必须同步冲刷
	c.Close(context.Background())
	require.Equal(t, 1, store.UpdateCalls)

	// 关闭后的变更被忽略
	c.Change()
	c.Close(context.Background())
	require.Equal(t, 1, store.UpdateCalls)
}

func TestCloseWithoutPendingSavesNothing(t *testing.T) {
	c, store, _, _ := newTestCoordinator(t, "user@example.com")

	c.Close(context.Background())
	require.Equal(t, 0, store.UpdateCalls)
}

func TestSetStepFlushesAtOldStep(t *testing.T) {
	c, store, form, _ := newTestCoordinator(t, "user@example.com")

	form.Set("personalDetails.firstName", "Joe")
	c.Change()
	c.SetStep(context.Background(), model.StepBusinessDetails)

	require.Equal(t, 1, store.UpdateCalls)
	rec, err := store.GetByEmail(context.Background(), "user@example.com")
	require.NoError(t, err)
	require.Equal(t, model.StepPersonalDetails, rec.CurrentStep)
}

func TestRestoreRoundTripPreservesEmptyString(t *testing.T) {
	store := NewMemoryStore()

	// 第一次会话：step 2 保存了 firstName 为空串的快照
	{
		form := NewMapForm()
		form.Set("personalDetails.firstName", "")
		form.Set("personalDetails.lastName", "Doe")

		c := NewCoordinator(form, store, "user@example.com", WithClock(clock.NewMock()))
		c.SetStep(context.Background(), model.StepBusinessDetails)
		c.Change()
		c.Close(context.Background())
	}

	// 模拟重载：新表单新协调器
	form := NewMapForm()
	c := NewCoordinator(form, store, "user@example.com", WithClock(clock.NewMock()))

	step := c.Restore(context.Background())
	require.Equal(t, 2, step)

	values := form.Values()
	personal := values["personalDetails"].(map[string]interface{})
	got, ok := personal["firstName"]
	require.True(t, ok, "empty-string leaf must survive the round trip")
	require.Equal(t, "", got)
	require.Equal(t, "Doe", personal["lastName"])
}

func TestRestoreIsOneShot(t *testing.T) {
	c, store, _, _ := newTestCoordinator(t, "user@example.com")
	require.NoError(t, store.UpdateStep(context.Background(), "user@example.com",
		model.StepTaxDetails, string(model.FlowTypeNewBusiness),
		map[string]interface{}{"taxDetails": map[string]interface{}{"pan": "X"}}))
	store.GetCalls = 0

	first := c.Restore(context.Background())
	second := c.Restore(context.Background())

	require.Equal(t, first, second)
	require.Equal(t, 1, store.GetCalls)
}

func TestRestoreUnauthenticatedShortCircuits(t *testing.T) {
	c, store, _, _ := newTestCoordinator(t, "")

	step := c.Restore(context.Background())

	require.Equal(t, model.FirstStepNumber, step)
	require.Equal(t, 0, store.GetCalls)
}

func TestRestoreMissReturnsFirstStep(t *testing.T) {
	c, _, _, _ := newTestCoordinator(t, "user@example.com")

	step := c.Restore(context.Background())
	require.Equal(t, model.FirstStepNumber, step)
}

func TestRestoreFailureLeavesCleanForm(t *testing.T) {
	c, store, form, _ := newTestCoordinator(t, "user@example.com")
	store.FailNext = errors.New("store unavailable")

	step := c.Restore(context.Background())

	require.Equal(t, model.FirstStepNumber, step)
	require.Empty(t, form.Values())
}

func TestRestoreAfterLocalEditIsDiscarded(t *testing.T) {
	c, store, form, _ := newTestCoordinator(t, "user@example.com")
	require.NoError(t, store.UpdateStep(context.Background(), "user@example.com",
		model.StepReview, string(model.FlowTypeNewBusiness),
		map[string]interface{}{"personalDetails": map[string]interface{}{"firstName": "Old"}}))

	// 响应抵达前用户已开始输入
	form.Set("personalDetails.firstName", "Fresh")
	c.Change()

	step := c.Restore(context.Background())

	require.Equal(t, model.FirstStepNumber, step)
	require.Equal(t, "Fresh",
		form.Values()["personalDetails"].(map[string]interface{})["firstName"])
}

func TestRestoreNormalizesLegacySnapshot(t *testing.T) {
	c, store, form, _ := newTestCoordinator(t, "user@example.com")
	require.NoError(t, store.UpdateStep(context.Background(), "user@example.com",
		model.StepBusinessDetails, string(model.FlowTypeExistingBusiness),
		map[string]interface{}{"companyName": "Acme", "country": "in"}))

	step := c.Restore(context.Background())
	require.Equal(t, 2, step)

	details := form.Values()["businessDetails"].(map[string]interface{})
	require.Equal(t, "Acme", details["companyName"])
	require.Equal(t, "IN", details["country"])
}

func TestClearWritesEmptySnapshotAtFirstStep(t *testing.T) {
	c, store, form, _ := newTestCoordinator(t, "user@example.com")

	form.Set("personalDetails.firstName", "Joe")
	c.Change()
	c.Clear(context.Background())

	rec, err := store.GetByEmail(context.Background(), "user@example.com")
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, model.StepPersonalDetails, rec.CurrentStep)
	require.Empty(t, rec.Snapshot)
}

func TestSaveFailureIsSwallowed(t *testing.T) {
	c, store, form, mock := newTestCoordinator(t, "user@example.com")
	store.FailNext = errors.New("store unavailable")

	form.Set("personalDetails.firstName", "Joe")
	c.Change()
	mock.Add(2 * time.Second)

	require.Equal(t, 1, store.UpdateCalls)

	// 下一轮保存正常进行
	c.Change()
	mock.Add(2 * time.Second)
	require.Equal(t, 2, store.UpdateCalls)
}
