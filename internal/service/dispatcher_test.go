package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"example.com/dosepoint/services/device/internal/messaging"
	"example.com/dosepoint/services/device/internal/models"
	"example.com/dosepoint/services/device/internal/tracking"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// testDeps bundles the mocks plus captured side-effect rows
type testDeps struct {
	repo     *MockRepository
	cache    *MockCache
	notifier *MockNotifier
	tracker  *MockTracker
	tasks    *MockTaskClient

	stories  []*models.UserStory
	activity []*models.DeviceUserLog
	errors   []*models.ErrorLog
}

func newTestService(t *testing.T) (Service, *testDeps) {
	deps := &testDeps{
		repo:     new(MockRepository),
		cache:    new(MockCache),
		notifier: new(MockNotifier),
		tracker:  new(MockTracker),
		tasks:    new(MockTaskClient),
	}

	// Cache misses by default; writes succeed
	deps.cache.On("Get", mock.Anything, mock.Anything).Return("", errors.New("cache miss")).Maybe()
	deps.cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	// Persistence succeeds by default, capturing what was written
	deps.repo.On("SaveClickLog", mock.Anything, mock.AnythingOfType("*models.ClickLog")).Return(nil).Maybe()
	deps.repo.On("UpdateDevice", mock.Anything, mock.AnythingOfType("*models.Device")).Return(nil).Maybe()
	deps.repo.On("SaveUserStory", mock.Anything, mock.AnythingOfType("*models.UserStory")).
		Run(func(args mock.Arguments) {
			deps.stories = append(deps.stories, args.Get(1).(*models.UserStory))
		}).Return(nil).Maybe()
	deps.repo.On("SaveDeviceUserLog", mock.Anything, mock.AnythingOfType("*models.DeviceUserLog")).
		Run(func(args mock.Arguments) {
			deps.activity = append(deps.activity, args.Get(1).(*models.DeviceUserLog))
		}).Return(nil).Maybe()
	deps.repo.On("SaveErrorLog", mock.Anything, mock.AnythingOfType("*models.ErrorLog")).
		Run(func(args mock.Arguments) {
			deps.errors = append(deps.errors, args.Get(1).(*models.ErrorLog))
		}).Return(nil).Maybe()

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	svc, err := NewService(ServiceConfig{
		Repository:        deps.repo,
		Cache:             deps.cache,
		Notifier:          deps.notifier,
		Tracker:           deps.tracker,
		Tasks:             deps.tasks,
		Logger:            log,
		OpsRecipient:      "ops",
		ShippingRecipient: "shipping",
	})
	require.NoError(t, err)

	return svc, deps
}

func pressBody(serial string) []byte {
	return []byte(fmt.Sprintf(
		`{"deviceInfo":{"deviceId":"%s","remainingLife":87.5},"deviceEvent":{"buttonClicked":{"clickType":"SINGLE"}}}`,
		serial))
}

func testUser() *models.User {
	u := &models.User{Email: "pat@example.com", FirstName: "Pat", LastName: "Jones", Active: true}
	u.ID = 7
	return u
}

func testDevice(mutate func(*models.Device)) *models.Device {
	user := testUser()
	d := &models.Device{
		SerialNumber: "BTN-1001",
		User:         user,
		UserID:       &user.ID,
		Active:       true,
		Status:       models.StatusReady,
	}
	d.ID = 42
	if mutate != nil {
		mutate(d)
	}
	return d
}

func (d *testDeps) errorKinds() []models.ErrorKind {
	kinds := make([]models.ErrorKind, 0, len(d.errors))
	for _, e := range d.errors {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

func (d *testDeps) storyActions() []models.ActionKind {
	actions := make([]models.ActionKind, 0, len(d.stories))
	for _, s := range d.stories {
		actions = append(actions, s.Action)
	}
	return actions
}

func TestPressUnknownFormatSkipsDeviceLookup(t *testing.T) {
	svc, deps := newTestService(t)

	res := svc.HandlePress(context.Background(), []byte(`{"somethingElse":true}`))

	require.Equal(t, OutcomeUnknownFormat, res.Outcome)
	require.Equal(t, []models.ErrorKind{models.ErrUnknownIngressFormat}, deps.errorKinds())
	deps.repo.AssertNotCalled(t, "FindDeviceBySerial", mock.Anything, mock.Anything)
}

func TestPressUnknownDeviceIsNotActive(t *testing.T) {
	svc, deps := newTestService(t)
	deps.repo.On("FindDeviceBySerial", mock.Anything, "BTN-1001").Return(nil, fmt.Errorf("find device: %w", gorm.ErrRecordNotFound))

	res := svc.HandlePress(context.Background(), pressBody("BTN-1001"))

	require.Equal(t, OutcomeDeviceNotActive, res.Outcome)
	require.Equal(t, []models.ErrorKind{models.ErrDeviceNotSetup}, deps.errorKinds())
	// Absence alone does not warrant an operator notification
	deps.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestPressInactiveDeviceNotifiesOperators(t *testing.T) {
	svc, deps := newTestService(t)
	device := testDevice(func(d *models.Device) { d.Active = false })
	deps.repo.On("FindDeviceBySerial", mock.Anything, "BTN-1001").Return(device, nil)
	deps.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(n messaging.Notification) bool {
		return n.Class == messaging.ClassWarning
	})).Return(nil).Once()

	res := svc.HandlePress(context.Background(), pressBody("BTN-1001"))

	require.Equal(t, OutcomeDeviceNotActive, res.Outcome)
	deps.notifier.AssertExpectations(t)
	// The per-click update still happened
	require.Equal(t, uint(1), device.ClicksTotal)
	require.NotNil(t, device.LastPressedAt)
}

func TestPressUnassignedDevice(t *testing.T) {
	svc, deps := newTestService(t)
	device := testDevice(func(d *models.Device) {
		d.User = nil
		d.UserID = nil
	})
	deps.repo.On("FindDeviceBySerial", mock.Anything, "BTN-1001").Return(device, nil)
	deps.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(n messaging.Notification) bool {
		return n.Class == messaging.ClassError
	})).Return(nil).Once()

	res := svc.HandlePress(context.Background(), pressBody("BTN-1001"))

	require.Equal(t, OutcomeNoUserAssigned, res.Outcome)
	require.Equal(t, []models.ErrorKind{models.ErrDeviceNotAssigned}, deps.errorKinds())
	deps.notifier.AssertExpectations(t)
}

func TestPressDemoDeviceIsInert(t *testing.T) {
	svc, deps := newTestService(t)
	device := testDevice(func(d *models.Device) {
		d.Demo = true
		d.Shipped = true
		d.Delivered = true
		d.Activated = true
		d.Status = models.StatusEscalated
	})
	deps.repo.On("FindDeviceBySerial", mock.Anything, "BTN-1001").Return(device, nil)

	res := svc.HandlePress(context.Background(), pressBody("BTN-1001"))

	require.Equal(t, OutcomeDemoIgnored, res.Outcome)
	// Only the classification update touched the device; status untouched
	require.Equal(t, models.StatusEscalated, device.Status)
	require.Equal(t, uint(0), device.ClicksUser)
	deps.repo.AssertNumberOfCalls(t, "UpdateDevice", 1)
	deps.tasks.AssertNotCalled(t, "RemoveTask", mock.Anything, mock.Anything)
	deps.tasks.AssertNotCalled(t, "CreateTask", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	require.Empty(t, deps.stories)
	require.Empty(t, deps.activity)
}

func TestPressBeforeShipmentIsTestClick(t *testing.T) {
	svc, deps := newTestService(t)
	// Status is irrelevant before shipment, whatever it holds
	device := testDevice(func(d *models.Device) { d.Status = models.StatusEscalated })
	deps.repo.On("FindDeviceBySerial", mock.Anything, "BTN-1001").Return(device, nil)
	deps.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(n messaging.Notification) bool {
		return n.Class == messaging.ClassTestClick && n.Recipient == "shipping"
	})).Return(nil).Once()

	res := svc.HandlePress(context.Background(), pressBody("BTN-1001"))

	require.Equal(t, OutcomeTestClick, res.Outcome)
	require.Equal(t, models.StatusEscalated, device.Status)
	deps.tasks.AssertNotCalled(t, "RemoveTask", mock.Anything, mock.Anything)
	deps.notifier.AssertExpectations(t)
}

func TestPressTestClickNotificationFailureIsNotFatal(t *testing.T) {
	svc, deps := newTestService(t)
	device := testDevice(nil)
	deps.repo.On("FindDeviceBySerial", mock.Anything, "BTN-1001").Return(device, nil)
	deps.notifier.On("Notify", mock.Anything, mock.Anything).Return(errors.New("queue unavailable")).Once()

	res := svc.HandlePress(context.Background(), pressBody("BTN-1001"))

	require.Equal(t, OutcomeTestClickFailed, res.Outcome)
	require.Contains(t, res.Message, "queue unavailable")
	require.Equal(t, []models.ErrorKind{models.ErrTestClickNotification}, deps.errorKinds())
}

func TestPressShippedWithoutTrackingID(t *testing.T) {
	svc, deps := newTestService(t)
	device := testDevice(func(d *models.Device) { d.Shipped = true })
	deps.repo.On("FindDeviceBySerial", mock.Anything, "BTN-1001").Return(device, nil)
	// Distinct class from the unassigned-device alert; the mailer keys on it
	deps.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(n messaging.Notification) bool {
		return n.Class == messaging.ClassDataError
	})).Return(nil).Once()

	res := svc.HandlePress(context.Background(), pressBody("BTN-1001"))

	require.Equal(t, OutcomeNoTrackingID, res.Outcome)
	deps.notifier.AssertExpectations(t)
	require.Equal(t, []models.ErrorKind{models.ErrMissingTrackingID}, deps.errorKinds())
	require.False(t, device.Delivered)
	// One persist from classification, none from the branch
	deps.repo.AssertNumberOfCalls(t, "UpdateDevice", 1)
}

func TestPressInTransitNotDelivered(t *testing.T) {
	svc, deps := newTestService(t)
	trackingID := "T1"
	device := testDevice(func(d *models.Device) {
		d.Shipped = true
		d.TrackingID = &trackingID
	})
	estimate := time.Now().Add(48 * time.Hour).UTC()
	deps.repo.On("FindDeviceBySerial", mock.Anything, "BTN-1001").Return(device, nil)
	deps.tracker.On("Track", mock.Anything, "T1").Return(&tracking.TrackResult{
		Delivered:        false,
		DeliveryAttempts: 1,
		DeliveryEstimate: &estimate,
	}, nil).Once()

	res := svc.HandlePress(context.Background(), pressBody("BTN-1001"))

	require.Equal(t, OutcomeNotDeliveredIgnored, res.Outcome)
	require.False(t, device.Delivered)
	require.Contains(t, device.DeliveryDetails, "delivery_estimate")
	// In-transit noise lands in the narrative only, never the activity log
	require.Equal(t, []models.ActionKind{models.ActionPressIgnoredInDelivery}, deps.storyActions())
	require.Empty(t, deps.activity)
	deps.tracker.AssertExpectations(t)
}

func TestPressInTransitResolvedToDelivered(t *testing.T) {
	svc, deps := newTestService(t)
	trackingID := "T1"
	device := testDevice(func(d *models.Device) {
		d.Shipped = true
		d.TrackingID = &trackingID
	})
	deliveredAt := time.Now().Add(-3 * time.Hour).UTC()
	deps.repo.On("FindDeviceBySerial", mock.Anything, "BTN-1001").Return(device, nil)
	deps.tracker.On("Track", mock.Anything, "T1").Return(&tracking.TrackResult{
		Delivered:        true,
		DeliveredAt:      &deliveredAt,
		SignatureName:    "P JONES",
		DeliveryAttempts: 2,
	}, nil).Once()
	deps.tasks.On("CreateTask", mock.Anything, models.TaskWelcome, device, device.User).Return("task-9", nil).Once()

	res := svc.HandlePress(context.Background(), pressBody("BTN-1001"))

	require.Equal(t, OutcomeMarkDeliveredActivated, res.Outcome)
	require.True(t, device.Delivered)
	require.True(t, device.Activated)
	require.Equal(t, deliveredAt, *device.DeliveredAt)
	require.Contains(t, device.DeliveryDetails, "P JONES")
	require.Equal(t, "task-9", *device.OpenTaskID)

	// Delivery entry is backdated to the carrier-reported time
	require.Equal(t, []models.ActionKind{
		models.ActionDeviceDelivery,
		models.ActionDeviceActivation,
		models.ActionTaskAddedWelcome,
	}, deps.storyActions())
	require.Equal(t, deliveredAt, deps.stories[0].OccurredAt)

	// Narrative entries are strictly ordered by sequence number
	require.Less(t, deps.stories[0].Seq, deps.stories[1].Seq)
	require.Less(t, deps.stories[1].Seq, deps.stories[2].Seq)

	deps.tasks.AssertExpectations(t)
}

func TestPressTrackingLookupFailure(t *testing.T) {
	svc, deps := newTestService(t)
	trackingID := "T1"
	device := testDevice(func(d *models.Device) {
		d.Shipped = true
		d.TrackingID = &trackingID
	})
	deps.repo.On("FindDeviceBySerial", mock.Anything, "BTN-1001").Return(device, nil)
	deps.tracker.On("Track", mock.Anything, "T1").Return(nil, errors.New("carrier timeout")).Once()

	res := svc.HandlePress(context.Background(), pressBody("BTN-1001"))

	require.Equal(t, OutcomeError, res.Outcome)
	require.Equal(t, []models.ErrorKind{models.ErrUncaughtDispatch}, deps.errorKinds())
	require.False(t, device.Delivered)
}

func TestPressFirstActivation(t *testing.T) {
	svc, deps := newTestService(t)
	device := testDevice(func(d *models.Device) {
		d.Shipped = true
		d.Delivered = true
	})
	deps.repo.On("FindDeviceBySerial", mock.Anything, "BTN-1001").Return(device, nil)
	deps.tasks.On("CreateTask", mock.Anything, models.TaskWelcome, device, device.User).Return("task-1", nil).Once()

	res := svc.HandlePress(context.Background(), pressBody("BTN-1001"))

	require.Equal(t, OutcomeActivatedDevice, res.Outcome)
	require.True(t, device.Activated)
	require.NotNil(t, device.ActivatedAt)
	require.Equal(t, uint(1), device.ClicksUser)
	require.Equal(t, "task-1", *device.OpenTaskID)
	require.Equal(t, []models.ActionKind{
		models.ActionDeviceActivation,
		models.ActionTaskAddedWelcome,
	}, deps.storyActions())
	require.Len(t, deps.activity, 1)
	require.Equal(t, models.ActionDeviceActivation, deps.activity[0].Action)
}

func TestPressFirstActivationClosesOpenTask(t *testing.T) {
	svc, deps := newTestService(t)
	staleTask := "task-stale"
	device := testDevice(func(d *models.Device) {
		d.Shipped = true
		d.Delivered = true
		d.OpenTaskID = &staleTask
	})
	deps.repo.On("FindDeviceBySerial", mock.Anything, "BTN-1001").Return(device, nil)
	deps.tasks.On("RemoveTask", mock.Anything, "task-stale").Return(nil).Once()
	deps.tasks.On("CreateTask", mock.Anything, models.TaskWelcome, device, device.User).Return("task-2", nil).Once()

	res := svc.HandlePress(context.Background(), pressBody("BTN-1001"))

	require.Equal(t, OutcomeActivatedDevice, res.Outcome)
	require.Equal(t, "task-2", *device.OpenTaskID)
	deps.tasks.AssertExpectations(t)
}

func activatedDevice(status models.DeviceStatus, mutate func(*models.Device)) *models.Device {
	return testDevice(func(d *models.Device) {
		d.Shipped = true
		d.Delivered = true
		d.Activated = true
		d.Status = status
		if mutate != nil {
			mutate(d)
		}
	})
}

func TestPressDosingFromReady(t *testing.T) {
	svc, deps := newTestService(t)
	device := activatedDevice(models.StatusReady, nil)
	deps.repo.On("FindDeviceBySerial", mock.Anything, "BTN-1001").Return(device, nil)

	res := svc.HandlePress(context.Background(), pressBody("BTN-1001"))

	require.Equal(t, OutcomeDosingClick, res.Outcome)
	require.Equal(t, models.StatusDosed, device.Status)
	require.Equal(t, uint(1), device.ClicksUser)
	require.Len(t, deps.activity, 1)
	require.Equal(t, models.ActionDosing, deps.activity[0].Action)
	require.Equal(t, []models.ActionKind{models.ActionDosing}, deps.storyActions())
}

func TestPressDosingDuplicateLeavesStatusAndTasksAlone(t *testing.T) {
	svc, deps := newTestService(t)
	device := activatedDevice(models.StatusDosed, nil)
	deps.repo.On("FindDeviceBySerial", mock.Anything, "BTN-1001").Return(device, nil)

	res := svc.HandlePress(context.Background(), pressBody("BTN-1001"))

	require.Equal(t, OutcomeDosingClick, res.Outcome)
	require.Equal(t, models.StatusDosed, device.Status)
	require.Equal(t, uint(1), device.ClicksUser)
	require.Len(t, deps.activity, 1)
	require.Equal(t, models.ActionDosingDuplicate, deps.activity[0].Action)
	deps.tasks.AssertNotCalled(t, "RemoveTask", mock.Anything, mock.Anything)
	deps.tasks.AssertNotCalled(t, "CreateTask", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPressDosingFromWarning(t *testing.T) {
	svc, deps := newTestService(t)
	device := activatedDevice(models.StatusWarning, nil)
	deps.repo.On("FindDeviceBySerial", mock.Anything, "BTN-1001").Return(device, nil)

	res := svc.HandlePress(context.Background(), pressBody("BTN-1001"))

	require.Equal(t, OutcomeDosingClick, res.Outcome)
	require.Equal(t, models.StatusDosed, device.Status)
	require.Equal(t, models.ActionDosingFromWarning, deps.activity[0].Action)
	deps.tasks.AssertNotCalled(t, "RemoveTask", mock.Anything, mock.Anything)
}

func TestPressDosingFromEscalationRemovesTask(t *testing.T) {
	svc, deps := newTestService(t)
	openTask := "task-esc"
	device := activatedDevice(models.StatusEscalated, func(d *models.Device) {
		d.OpenTaskID = &openTask
	})
	deps.repo.On("FindDeviceBySerial", mock.Anything, "BTN-1001").Return(device, nil)
	deps.tasks.On("RemoveTask", mock.Anything, "task-esc").Return(nil).Once()

	res := svc.HandlePress(context.Background(), pressBody("BTN-1001"))

	require.Equal(t, OutcomeDosingClick, res.Outcome)
	require.Equal(t, models.StatusDosed, device.Status)
	require.Nil(t, device.OpenTaskID)
	require.Equal(t, models.ActionDosingFromEscalation, deps.activity[0].Action)
	require.Equal(t, []models.ActionKind{
		models.ActionDosingFromEscalation,
		models.ActionTaskRemovedMissedDose,
	}, deps.storyActions())
	deps.tasks.AssertExpectations(t)
	deps.tasks.AssertNumberOfCalls(t, "RemoveTask", 1)
}

func TestPressDosingFromHoldOpensTask(t *testing.T) {
	svc, deps := newTestService(t)
	device := activatedDevice(models.StatusHold, nil)
	deps.repo.On("FindDeviceBySerial", mock.Anything, "BTN-1001").Return(device, nil)
	deps.tasks.On("CreateTask", mock.Anything, models.TaskDosingResumed, device, device.User).Return("task-resume", nil).Once()

	res := svc.HandlePress(context.Background(), pressBody("BTN-1001"))

	require.Equal(t, OutcomeDosingClick, res.Outcome)
	require.Equal(t, models.StatusDosed, device.Status)
	require.Equal(t, "task-resume", *device.OpenTaskID)
	require.Equal(t, models.ActionDosingFromHold, deps.activity[0].Action)
	require.Equal(t, []models.ActionKind{
		models.ActionDosingFromHold,
		models.ActionTaskAddedDosingResumed,
	}, deps.storyActions())
	deps.tasks.AssertNumberOfCalls(t, "CreateTask", 1)
}

func TestActivatedDeviceNeverReactivates(t *testing.T) {
	svc, deps := newTestService(t)
	device := activatedDevice(models.StatusReady, nil)
	deps.repo.On("FindDeviceBySerial", mock.Anything, "BTN-1001").Return(device, nil)

	res := svc.HandlePress(context.Background(), pressBody("BTN-1001"))

	require.Equal(t, OutcomeDosingClick, res.Outcome)
	// No welcome task, no activation entries
	deps.tasks.AssertNotCalled(t, "CreateTask", mock.Anything, models.TaskWelcome, mock.Anything, mock.Anything)
	require.NotContains(t, deps.storyActions(), models.ActionDeviceActivation)
}

func TestPressTaskFailureDuringDosingIsError(t *testing.T) {
	svc, deps := newTestService(t)
	device := activatedDevice(models.StatusHold, nil)
	deps.repo.On("FindDeviceBySerial", mock.Anything, "BTN-1001").Return(device, nil)
	deps.tasks.On("CreateTask", mock.Anything, models.TaskDosingResumed, device, device.User).
		Return("", errors.New("task system down")).Once()

	res := svc.HandlePress(context.Background(), pressBody("BTN-1001"))

	require.Equal(t, OutcomeError, res.Outcome)
	require.Equal(t, []models.ErrorKind{models.ErrUncaughtDispatch}, deps.errorKinds())
}
