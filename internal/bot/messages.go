package bot

import (
	"fmt"
	"strings"
)

const (
	msgUnregistered = "You are not registered. Please, type /register first"
	msgRegistered   = "You are already registered. You can use my commands :)"
	msgFormat       = "Wrong format; please see /help"
	msgUnknown      = "Unknown command; please see /help"
	msgAuthFailure  = "Spotify rejected your authorization. Please, type /register again"
	msgRateLimited  = "Spotify is busy right now, please try again later"
	msgGeneric      = "Something went wrong, please try again later"
	msgNoSession    = "No active session"
	msgNotListening = "You are not listening to anything right now"
	msgCannotResume = "Either you have no currently active device or you are already listening"
	msgStart        = "Please type /help to start using me"
	msgQueued       = "I added the tracks to your listening queue. Enjoy!"
	msgNoSeeds      = "I could not find anything to base recommendations on yet. Listen to some music first!"
	msgNoDevices    = "You have no Spotify devices right now. Open Spotify on one of them first"
	msgPickDevice   = "Please choose device that you want to transfer your playback to"
	msgPickSeed     = "Please choose based on what you want to get your recommended tracks"
)

const (
	defaultListLimit = 5
	maxListLimit     = 50

	defaultRecommendations = 3
	maxRecommendations     = 15

	seedCount = 5
)

func helpText() string {
	var b strings.Builder
	b.WriteString("Hello! I am Spotify bot.\n")
	b.WriteString("Here you can find most of the functionality of regular Spotify app *plus* some other fancy commands\n")
	b.WriteString("Before using me, please register with /register command\n")
	b.WriteString("*Some commands might not work if you are not premium user of Spotify.*\n")
	b.WriteString("My commands:\n")
	b.WriteString("/help *- see complete list of my commands*\n")
	b.WriteString("/register *- register to let me access your Spotify data; should be done before using any commands*\n")
	b.WriteString("/getMe *- get basic information about your account*\n")
	b.WriteString("/currentTrack *- get information about current playing track*\n")
	fmt.Fprintf(&b, "/topArtists {<limit>} *- get your top artists; limit ranges from 1 to %d; by default is %d*\n", maxListLimit, defaultListLimit)
	fmt.Fprintf(&b, "/topTracks {<limit>} *- get your top tracks; limit ranges from 1 to %d; by default is %d;* _deleted tracks have no audio preview_\n", maxListLimit, defaultListLimit)
	fmt.Fprintf(&b, "/recentlyPlayedTracks {<limit>} *- get your last played tracks; limit ranges from 1 to %d; by default is %d*\n", maxListLimit, defaultListLimit)
	b.WriteString("/setVolume <volume> *- set your volume value to <volume>. Does not work on iOS devices due to limitations from Spotify.*\n")
	b.WriteString("/pause *- pause your current playback.*\n")
	b.WriteString("/resume *- resume/start your playback on your currently active device.*\n")
	b.WriteString("/myDevices *- see list of your Spotify devices*\n")
	b.WriteString("/transferPlayback *- transfer playback to your other device*\n")
	b.WriteString("/seek <min:sec> *- seek to position in currently playing track*\n")
	b.WriteString("/next *- skip current track*\n")
	b.WriteString("/previous *- play previous track*\n")
	fmt.Fprintf(&b, "/getRecommendations {<limit>} *- get recommended tracks; adds tracks to your listening queue; limit ranges from 1 to %d; by default is %d.*\n", maxRecommendations, defaultRecommendations)
	b.WriteString("Arguments in _{}_ are *optional*\n")
	b.WriteString("_Note, if you are asking too many queries, bot might not respond for some time due to limitations from Spotify and Telegram API_\n")
	return b.String()
}
