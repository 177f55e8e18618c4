package application

import "github.com/dfryer1193/gogallery/gallery/domain"

// NotificationStatus is the severity of an upload notification.
type NotificationStatus string

const (
	NotificationSuccess NotificationStatus = "success"
	NotificationError   NotificationStatus = "error"
)

// Notification is the message shown to the user once a submission settles.
type Notification struct {
	Status      NotificationStatus
	Title       string
	Description string
}

// NotificationFor maps the outcome of Submit to what the user is told.
func NotificationFor(err error) Notification {
	if err == nil {
		return Notification{
			Status:      NotificationSuccess,
			Title:       "Image added",
			Description: "Your image has been uploaded",
		}
	}

	switch domain.KindOf(err) {
	case domain.KindPrecondition, domain.KindValidation, domain.KindMediaUpload:
		return Notification{
			Status:      NotificationError,
			Title:       "Image not added",
			Description: "Please select an image before submitting the form or try again later",
		}
	default:
		return Notification{
			Status:      NotificationError,
			Title:       "Error adding image",
			Description: "Something went wrong, please try again later",
		}
	}
}
