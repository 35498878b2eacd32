// Package mocks provides testify-based test doubles for the driver
// capability interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/browsergrid/api/schemas"
	"github.com/xkilldash9x/browsergrid/internal/driver"
	"github.com/xkilldash9x/browsergrid/internal/locator"
)

// -- Driver Factory Mock --

// MockFactory mocks driver.Factory.
type MockFactory struct {
	mock.Mock
}

func (m *MockFactory) New(ctx context.Context) (driver.Driver, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(driver.Driver), args.Error(1)
}

// -- Driver Mock --

// MockDriver mocks the driver.Driver capability.
type MockDriver struct {
	mock.Mock
}

func (m *MockDriver) Navigate(ctx context.Context, url string, pageLoadTimeout time.Duration) (string, error) {
	args := m.Called(ctx, url, pageLoadTimeout)
	return args.String(0), args.Error(1)
}

func (m *MockDriver) CurrentURL(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockDriver) Title(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockDriver) PageSource(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockDriver) Back(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockDriver) Forward(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockDriver) Refresh(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockDriver) FindOne(ctx context.Context, loc locator.Locator) (driver.Element, error) {
	args := m.Called(ctx, loc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(driver.Element), args.Error(1)
}

func (m *MockDriver) FindAll(ctx context.Context, loc locator.Locator) ([]driver.Element, error) {
	args := m.Called(ctx, loc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]driver.Element), args.Error(1)
}

func (m *MockDriver) ExecuteScript(ctx context.Context, script string, scriptArgs []interface{}) (driver.ScriptValue, error) {
	args := m.Called(ctx, script, scriptArgs)
	return args.Get(0).(driver.ScriptValue), args.Error(1)
}

func (m *MockDriver) Screenshot(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockDriver) Cookies(ctx context.Context) ([]schemas.Cookie, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]schemas.Cookie), args.Error(1)
}

func (m *MockDriver) AddCookie(ctx context.Context, c schemas.Cookie) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockDriver) DeleteCookie(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

func (m *MockDriver) DeleteAllCookies(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockDriver) SwitchToFrame(ctx context.Context, target driver.FrameTarget) error {
	return m.Called(ctx, target).Error(0)
}

func (m *MockDriver) SwitchToDefault(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockDriver) SwitchToParent(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockDriver) AlertText(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockDriver) AcceptAlert(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockDriver) DismissAlert(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockDriver) SendAlertText(ctx context.Context, text string) error {
	return m.Called(ctx, text).Error(0)
}

func (m *MockDriver) SetImplicitWait(d time.Duration) {
	m.Called(d)
}

func (m *MockDriver) Quit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// -- Element Mock --

// MockElement mocks driver.Element.
type MockElement struct {
	mock.Mock
}

func (m *MockElement) Click(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockElement) SendKeys(ctx context.Context, text string, clearFirst bool) error {
	return m.Called(ctx, text, clearFirst).Error(0)
}

func (m *MockElement) Attribute(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

func (m *MockElement) Text(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockElement) TagName(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockElement) IsDisplayed(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockElement) IsEnabled(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockElement) IsSelected(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockElement) Screenshot(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockElement) SelectByVisibleText(ctx context.Context, text string) error {
	return m.Called(ctx, text).Error(0)
}

func (m *MockElement) SelectByValue(ctx context.Context, value string) error {
	return m.Called(ctx, value).Error(0)
}

func (m *MockElement) SelectByIndex(ctx context.Context, index int) error {
	return m.Called(ctx, index).Error(0)
}

func (m *MockElement) Options(ctx context.Context, selectedOnly bool) ([]schemas.SelectOption, error) {
	args := m.Called(ctx, selectedOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]schemas.SelectOption), args.Error(1)
}

func (m *MockElement) DeselectAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
