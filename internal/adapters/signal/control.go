package signal

func (ctl *Controller) handlePing(c *wsConn) {
	ctl.sendJSON(c, "pong", nil)
}
