package datastore

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/farmwatch/farmwatch/internal/errors"
)

// CreateUser hashes password with bcrypt and stores the user together with
// any notification settings attached to it.
func (ds *DataStore) CreateUser(user *User, password string) (err error) {
	start := time.Now()
	defer func() { err = ds.track("create_user", start, err) }()

	if err := ds.ready(); err != nil {
		return err
	}
	if user.Username == "" || user.Email == "" {
		return errors.ValidationError("username and email are required")
	}
	if len(password) < 8 {
		return errors.ValidationError("password must be at least 8 characters")
	}
	switch user.Role {
	case "":
		user.Role = RoleUser
	case RoleAdmin, RoleUser, RoleViewer:
	default:
		return errors.Newf("unknown role %q", user.Role).
			Component("datastore").
			Category(errors.CategoryValidation).
			Build()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategorySystem).
			Context("operation", "hash_password").
			Build()
	}
	user.PasswordHash = string(hash)

	if err := ds.DB.Create(user).Error; err != nil {
		return dbError(err, "create_user")
	}
	return nil
}

// CheckPassword reports whether password matches the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// ActiveUsersWithSettings returns active users with their notification settings.
func (ds *DataStore) ActiveUsersWithSettings() (users []User, err error) {
	start := time.Now()
	defer func() { err = ds.track("active_users", start, err) }()

	if err := ds.ready(); err != nil {
		return nil, err
	}
	if err := ds.DB.Preload("NotificationSettings").
		Where("is_active = ?", true).
		Order("id ASC").
		Find(&users).Error; err != nil {
		return nil, dbError(err, "active_users")
	}
	return users, nil
}

// EnabledChannels lists the distinct channels that would reach at least one
// user, in email, sms, push order. E-mail is on unless a user disabled it;
// sms and push must be enabled explicitly. Channels need a matching contact.
func EnabledChannels(users []User) []string {
	reach := make(map[string]bool)
	for i := range users {
		u := &users[i]
		enabled := map[string]bool{ChannelEmail: true}
		for _, s := range u.NotificationSettings {
			enabled[s.NotificationType] = s.IsEnabled
		}
		if enabled[ChannelEmail] && u.Email != "" {
			reach[ChannelEmail] = true
		}
		if enabled[ChannelSMS] && u.Phone != "" {
			reach[ChannelSMS] = true
		}
		if enabled[ChannelPush] {
			reach[ChannelPush] = true
		}
	}

	var channels []string
	for _, c := range []string{ChannelEmail, ChannelSMS, ChannelPush} {
		if reach[c] {
			channels = append(channels, c)
		}
	}
	return channels
}
