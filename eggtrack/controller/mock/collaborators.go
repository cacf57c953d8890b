package mock

import (
	context "context"
	reflect "reflect"
	time "time"

	gomock "go.uber.org/mock/gomock"

	models "github.com/wonkyeggs/eggtrack/eggtrack/database/models"
	repositories "github.com/wonkyeggs/eggtrack/eggtrack/database/repositories"
	snapshot "github.com/wonkyeggs/eggtrack/eggtrack/snapshot"
	upstream "github.com/wonkyeggs/eggtrack/eggtrack/upstream"
)

// MockFetcher is a mock of the controller Fetcher interface.
type MockFetcher struct {
	ctrl     *gomock.Controller
	recorder *MockFetcherMockRecorder
}

type MockFetcherMockRecorder struct {
	mock *MockFetcher
}

func NewMockFetcher(ctrl *gomock.Controller) *MockFetcher {
	mock := &MockFetcher{ctrl: ctrl}
	mock.recorder = &MockFetcherMockRecorder{mock}
	return mock
}

func (m *MockFetcher) EXPECT() *MockFetcherMockRecorder {
	return m.recorder
}

func (m *MockFetcher) Fetch(ctx context.Context) ([]upstream.PlayerRecord, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Fetch", ctx)
	ret0, _ := ret[0].([]upstream.PlayerRecord)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockFetcherMockRecorder) Fetch(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Fetch", reflect.TypeOf((*MockFetcher)(nil).Fetch), ctx)
}

// MockNotifier is a mock of the controller Notifier interface.
type MockNotifier struct {
	ctrl     *gomock.Controller
	recorder *MockNotifierMockRecorder
}

type MockNotifierMockRecorder struct {
	mock *MockNotifier
}

func NewMockNotifier(ctrl *gomock.Controller) *MockNotifier {
	mock := &MockNotifier{ctrl: ctrl}
	mock.recorder = &MockNotifierMockRecorder{mock}
	return mock
}

func (m *MockNotifier) EXPECT() *MockNotifierMockRecorder {
	return m.recorder
}

func (m *MockNotifier) SendSnapshotSaved(ctx context.Context, decision snapshot.Decision, result *repositories.SaveResult, now time.Time) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SendSnapshotSaved", ctx, decision, result, now)
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockNotifierMockRecorder) SendSnapshotSaved(ctx, decision, result, now any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SendSnapshotSaved", reflect.TypeOf((*MockNotifier)(nil).SendSnapshotSaved), ctx, decision, result, now)
}

func (m *MockNotifier) SendPartialSync(ctx context.Context, decision snapshot.Decision, result *repositories.SaveResult, now time.Time) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SendPartialSync", ctx, decision, result, now)
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockNotifierMockRecorder) SendPartialSync(ctx, decision, result, now any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SendPartialSync", reflect.TypeOf((*MockNotifier)(nil).SendPartialSync), ctx, decision, result, now)
}

func (m *MockNotifier) SendWeekNoUpdate(ctx context.Context, state *models.ControllerState, now time.Time) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SendWeekNoUpdate", ctx, state, now)
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockNotifierMockRecorder) SendWeekNoUpdate(ctx, state, now any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SendWeekNoUpdate", reflect.TypeOf((*MockNotifier)(nil).SendWeekNoUpdate), ctx, state, now)
}

// MockExclusionRepository is a mock of repositories.ExclusionRepository.
type MockExclusionRepository struct {
	ctrl     *gomock.Controller
	recorder *MockExclusionRepositoryMockRecorder
}

type MockExclusionRepositoryMockRecorder struct {
	mock *MockExclusionRepository
}

func NewMockExclusionRepository(ctrl *gomock.Controller) *MockExclusionRepository {
	mock := &MockExclusionRepository{ctrl: ctrl}
	mock.recorder = &MockExclusionRepositoryMockRecorder{mock}
	return mock
}

func (m *MockExclusionRepository) EXPECT() *MockExclusionRepositoryMockRecorder {
	return m.recorder
}

func (m *MockExclusionRepository) List(ctx context.Context) (map[string]struct{}, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "List", ctx)
	ret0, _ := ret[0].(map[string]struct{})
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockExclusionRepositoryMockRecorder) List(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "List", reflect.TypeOf((*MockExclusionRepository)(nil).List), ctx)
}

func (m *MockExclusionRepository) GetAll(ctx context.Context) ([]*models.ExcludedPlayer, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetAll", ctx)
	ret0, _ := ret[0].([]*models.ExcludedPlayer)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockExclusionRepositoryMockRecorder) GetAll(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetAll", reflect.TypeOf((*MockExclusionRepository)(nil).GetAll), ctx)
}

// MockCacheRepository is a mock of repositories.CacheRepository.
type MockCacheRepository struct {
	ctrl     *gomock.Controller
	recorder *MockCacheRepositoryMockRecorder
}

type MockCacheRepositoryMockRecorder struct {
	mock *MockCacheRepository
}

func NewMockCacheRepository(ctrl *gomock.Controller) *MockCacheRepository {
	mock := &MockCacheRepository{ctrl: ctrl}
	mock.recorder = &MockCacheRepositoryMockRecorder{mock}
	return mock
}

func (m *MockCacheRepository) EXPECT() *MockCacheRepositoryMockRecorder {
	return m.recorder
}

func (m *MockCacheRepository) Replace(ctx context.Context, records []upstream.PlayerRecord, now time.Time) (int, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Replace", ctx, records, now)
	ret0, _ := ret[0].(int)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockCacheRepositoryMockRecorder) Replace(ctx, records, now any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Replace", reflect.TypeOf((*MockCacheRepository)(nil).Replace), ctx, records, now)
}

func (m *MockCacheRepository) GetAll(ctx context.Context) ([]*models.LeaderboardCacheEntry, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetAll", ctx)
	ret0, _ := ret[0].([]*models.LeaderboardCacheEntry)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockCacheRepositoryMockRecorder) GetAll(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetAll", reflect.TypeOf((*MockCacheRepository)(nil).GetAll), ctx)
}

func (m *MockCacheRepository) GetByDiscordID(ctx context.Context, discordID string) (*models.LeaderboardCacheEntry, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByDiscordID", ctx, discordID)
	ret0, _ := ret[0].(*models.LeaderboardCacheEntry)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockCacheRepositoryMockRecorder) GetByDiscordID(ctx, discordID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByDiscordID", reflect.TypeOf((*MockCacheRepository)(nil).GetByDiscordID), ctx, discordID)
}

func (m *MockCacheRepository) GetFreshness(ctx context.Context) (*time.Time, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetFreshness", ctx)
	ret0, _ := ret[0].(*time.Time)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockCacheRepositoryMockRecorder) GetFreshness(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetFreshness", reflect.TypeOf((*MockCacheRepository)(nil).GetFreshness), ctx)
}

// MockStateRepository is a mock of repositories.StateRepository.
type MockStateRepository struct {
	ctrl     *gomock.Controller
	recorder *MockStateRepositoryMockRecorder
}

type MockStateRepositoryMockRecorder struct {
	mock *MockStateRepository
}

func NewMockStateRepository(ctrl *gomock.Controller) *MockStateRepository {
	mock := &MockStateRepository{ctrl: ctrl}
	mock.recorder = &MockStateRepositoryMockRecorder{mock}
	return mock
}

func (m *MockStateRepository) EXPECT() *MockStateRepositoryMockRecorder {
	return m.recorder
}

func (m *MockStateRepository) Load(ctx context.Context) (*models.ControllerState, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Load", ctx)
	ret0, _ := ret[0].(*models.ControllerState)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockStateRepositoryMockRecorder) Load(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Load", reflect.TypeOf((*MockStateRepository)(nil).Load), ctx)
}

func (m *MockStateRepository) Initialize(ctx context.Context, now time.Time) (*models.ControllerState, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Initialize", ctx, now)
	ret0, _ := ret[0].(*models.ControllerState)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockStateRepositoryMockRecorder) Initialize(ctx, now any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Initialize", reflect.TypeOf((*MockStateRepository)(nil).Initialize), ctx, now)
}

func (m *MockStateRepository) Update(ctx context.Context, upd repositories.StateUpdate) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Update", ctx, upd)
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockStateRepositoryMockRecorder) Update(ctx, upd any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Update", reflect.TypeOf((*MockStateRepository)(nil).Update), ctx, upd)
}

// MockSnapshotRepository is a mock of repositories.SnapshotRepository.
type MockSnapshotRepository struct {
	ctrl     *gomock.Controller
	recorder *MockSnapshotRepositoryMockRecorder
}

type MockSnapshotRepositoryMockRecorder struct {
	mock *MockSnapshotRepository
}

func NewMockSnapshotRepository(ctrl *gomock.Controller) *MockSnapshotRepository {
	mock := &MockSnapshotRepository{ctrl: ctrl}
	mock.recorder = &MockSnapshotRepositoryMockRecorder{mock}
	return mock
}

func (m *MockSnapshotRepository) EXPECT() *MockSnapshotRepositoryMockRecorder {
	return m.recorder
}

func (m *MockSnapshotRepository) Save(ctx context.Context, records []upstream.PlayerRecord, snapshotDate string, now time.Time) (*repositories.SaveResult, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Save", ctx, records, snapshotDate, now)
	ret0, _ := ret[0].(*repositories.SaveResult)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockSnapshotRepositoryMockRecorder) Save(ctx, records, snapshotDate, now any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Save", reflect.TypeOf((*MockSnapshotRepository)(nil).Save), ctx, records, snapshotDate, now)
}

func (m *MockSnapshotRepository) DeleteByDate(ctx context.Context, snapshotDate string) (int64, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "DeleteByDate", ctx, snapshotDate)
	ret0, _ := ret[0].(int64)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockSnapshotRepositoryMockRecorder) DeleteByDate(ctx, snapshotDate any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "DeleteByDate", reflect.TypeOf((*MockSnapshotRepository)(nil).DeleteByDate), ctx, snapshotDate)
}

func (m *MockSnapshotRepository) CountForDate(ctx context.Context, snapshotDate string) (int, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CountForDate", ctx, snapshotDate)
	ret0, _ := ret[0].(int)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockSnapshotRepositoryMockRecorder) CountForDate(ctx, snapshotDate any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CountForDate", reflect.TypeOf((*MockSnapshotRepository)(nil).CountForDate), ctx, snapshotDate)
}
