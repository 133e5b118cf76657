package model

// Channel identifies one of the supported notification transports.
// The set is closed: adding a channel means adding a sender variant,
// a renderer branch and a contact field on the profile.
type Channel string

const (
	ChannelEmail   Channel = "email"
	ChannelSMS     Channel = "sms"
	ChannelDesktop Channel = "desktop"
	ChannelMobile  Channel = "mobile"
)

// Channels returns every supported channel in a stable order.
func Channels() []Channel {
	return []Channel{ChannelEmail, ChannelSMS, ChannelDesktop, ChannelMobile}
}

func (c Channel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelDesktop, ChannelMobile:
		return true
	}
	return false
}

func (c Channel) String() string {
	return string(c)
}
