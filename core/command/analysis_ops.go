package command

// StartAnalysis launches the external analyzer on a video.
// Colors are hex strings; they are validated by the application layer.
type StartAnalysis struct {
	VideoPath  string
	Team1Color string
	Team2Color string
}

func NewStartAnalysis(videoPath, team1Color, team2Color string) *StartAnalysis {
	return &StartAnalysis{
		VideoPath:  videoPath,
		Team1Color: team1Color,
		Team2Color: team2Color,
	}
}

func (c *StartAnalysis) CommandName() string {
	return "StartAnalysis"
}
