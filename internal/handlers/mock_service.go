package handlers

import (
	"context"
	"time"

	"terneo_bridge/internal/logger"
	"terneo_bridge/internal/models"
	"terneo_bridge/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockDevices struct {
	registerErr error
	unregErr    error
	listResp    []models.DeviceIdentity
	listErr     error
	discovered  []models.Beacon

	lastSerial    string
	lastHost      string
	lastName      string
	registerCalls int
	unregCalls    int
}

func (m *mockDevices) Register(ctx context.Context, serial, host, name string) error {
	m.registerCalls++
	m.lastSerial, m.lastHost, m.lastName = serial, host, name
	return m.registerErr
}

func (m *mockDevices) Unregister(ctx context.Context, serial string) error {
	m.unregCalls++
	m.lastSerial = serial
	return m.unregErr
}

func (m *mockDevices) List(ctx context.Context) ([]models.DeviceIdentity, error) {
	return m.listResp, m.listErr
}

func (m *mockDevices) Discovered(ctx context.Context) []models.Beacon {
	return m.discovered
}

type mockControl struct {
	err error

	lastPowerOn  bool
	lastSetpoint float64
	lastPreset   string
	lastDay      time.Weekday
	lastPeriods  []models.SchedulePeriod
	lastWeek     map[time.Weekday][]models.SchedulePeriod
	lastAway     models.AwayWindow
	lastParamID  int
	lastParamVal string
	calls        int
}

func (m *mockControl) SetPower(ctx context.Context, serial string, on bool) error {
	m.calls++
	m.lastPowerOn = on
	return m.err
}

func (m *mockControl) SetSetpoint(ctx context.Context, serial string, celsius float64) error {
	m.calls++
	m.lastSetpoint = celsius
	return m.err
}

func (m *mockControl) SetPreset(ctx context.Context, serial, preset string) error {
	m.calls++
	m.lastPreset = preset
	return m.err
}

func (m *mockControl) SetScheduleDay(ctx context.Context, serial string, day time.Weekday, periods []models.SchedulePeriod) error {
	m.calls++
	m.lastDay = day
	m.lastPeriods = periods
	return m.err
}

func (m *mockControl) SetWeeklySchedule(ctx context.Context, serial string, week map[time.Weekday][]models.SchedulePeriod) error {
	m.calls++
	m.lastWeek = week
	return m.err
}

func (m *mockControl) SetAwayWindow(ctx context.Context, serial string, w models.AwayWindow) error {
	m.calls++
	m.lastAway = w
	return m.err
}

func (m *mockControl) SetRawParameter(ctx context.Context, serial string, id int, value string) error {
	m.calls++
	m.lastParamID = id
	m.lastParamVal = value
	return m.err
}

type mockMonitoring struct {
	state      models.DeviceState
	stateErr   error
	states     []models.DeviceState
	statesErr  error
	refreshErr error
	schedule   map[time.Weekday][]models.SchedulePeriod
	schedErr   error
}

func (m *mockMonitoring) GetState(ctx context.Context, serial string) (models.DeviceState, error) {
	return m.state, m.stateErr
}

func (m *mockMonitoring) ListStates(ctx context.Context) ([]models.DeviceState, error) {
	return m.states, m.statesErr
}

func (m *mockMonitoring) Refresh(ctx context.Context, serial string) (models.DeviceState, error) {
	return m.state, m.refreshErr
}

func (m *mockMonitoring) GetSchedule(ctx context.Context, serial string) (map[time.Weekday][]models.SchedulePeriod, error) {
	return m.schedule, m.schedErr
}

type mockEventLog struct {
	resp       []models.BridgeEvent
	err        error
	lastFilter service.LogFilter
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.BridgeEvent, error) {
	m.lastFilter = f
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func testServices(dev *mockDevices, ctrl *mockControl, mon *mockMonitoring, logs *mockEventLog) *service.Service {
	if dev == nil {
		dev = &mockDevices{}
	}
	if ctrl == nil {
		ctrl = &mockControl{}
	}
	if mon == nil {
		mon = &mockMonitoring{}
	}
	if logs == nil {
		logs = &mockEventLog{}
	}
	return &service.Service{
		Devices:    dev,
		Control:    ctrl,
		Monitoring: mon,
		EventLog:   logs,
		Stream:     service.NewHub(logger.Get(logger.ErrorLevel)),
	}
}

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}
