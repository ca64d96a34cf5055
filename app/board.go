package app

//go:generate go run ../cmd/mkboard -in board.toml -out vectors_gen.go -package app

// BoardInfo describes the board the firmware was generated for.
type BoardInfo struct {
	Name        string
	TimerHz     int
	BeatDivider uint16
	PanelAddr   uint16
}
