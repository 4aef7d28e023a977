package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[ProcessNotificationMessage] = (*ProcessNotificationCommand)(nil)
	_ gocmd.Commander[RefreshDailyTotalsMessage]  = (*RefreshDailyTotalsCommand)(nil)
)
