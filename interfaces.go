package senec

type Notification interface {
	ReadSucceeded(sensors int)
	ReadFailed(error)
	SensorMissing(group, key string)
}

var NilNotification = nilNotification{}

type nilNotification struct {
}

func (n nilNotification) ReadSucceeded(_ int) {
}

func (n nilNotification) ReadFailed(_ error) {
}

func (n nilNotification) SensorMissing(_, _ string) {

}
