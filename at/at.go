package at

const (
	// Terminal Control
	CRLF   = "\r\n"
	Prompt = "> "
	CtrlZ  = "\x1a"

	// Response Codes
	OK         = "OK"
	ERROR      = "ERROR"
	NoCarrier  = "NO CARRIER"
	NoDialtone = "NO DIALTONE"
	Busy       = "BUSY"
	NoAnswer   = "NO ANSWER"
	CmeError   = "+CME ERROR:"
	CmsError   = "+CMS ERROR:"

	// URCs (Unsolicited Result Codes)
	UrcNewMsg        = "+CMTI:"
	UrcMessageReport = "+CDSI:"
	UrcCall          = "RING"
	UrcVoiceCall     = "VOICE CALL:"

	// Prefixes of solicited reply lines
	RespSMSList    = "+CMGL:"
	RespSMSRead    = "+CMGR:"
	RespSMSSent    = "+CMGS:"
	RespSignal     = "+CSQ:"
	RespNetworkReg = "+CREG:"

	// Commands
	CmdAt            = "AT"
	CmdEchoOff       = "ATE0"
	CmdVerboseErrors = "AT+CMEE=2"
	CmdSimStatus     = "AT+CPIN?"
	CmdSetTextMode   = "AT+CMGF=1"
	CmdListAllSMS    = `AT+CMGL="ALL"`
	CmdDeleteAllSMS  = `AT+CMGDA="DEL ALL"`
	CmdSignal        = "AT+CSQ"
	CmdNetworkReg    = "AT+CREG?"
	CmdAnswer        = "ATA"
	CmdHangup        = "AT+CHUP"

	// Audio routing for voice calls (SIM7600-family)
	CmdAudioHeadphones = "AT+CSDVC=1"
	CmdVolume          = "AT+CLVL=5"
	CmdMicGain         = "AT+CMICGAIN=8"

	// SIM states reported by AT+CPIN?
	SimReady = "READY"
	SimPin   = "SIM PIN"
)

type ResponseType int

const (
	TypeFinal  ResponseType = iota // OK, ERROR
	TypeURC                        // Asynchronous notifications
	TypeData                       // Intermediate command output (+CSQ: ...)
	TypePrompt                     // SMS input prompt
)
