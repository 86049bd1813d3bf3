package voicesynth

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/superterminal/voicesynth/internal/luabind"
)

// RunLua runs a host script against the live controller. Besides one
// procedure per controller operation the script sees the timeline, bank
// and script-player procedures below.
func (s *System) RunLua(src string) error {
	env := s.luaEnv()
	defer env.Close()
	return env.DoString(src)
}

// RunLuaFile is RunLua over a file.
func (s *System) RunLuaFile(path string) error {
	env := s.luaEnv()
	defer env.Close()
	return env.DoFile(path)
}

func (s *System) luaEnv() *luabind.Env {
	procs := map[string]lua.LGFunction{
		"voices_start_recording": func(L *lua.LState) int {
			s.StartRecording()
			return 0
		},
		"voice_wait": func(L *lua.LState) int {
			s.VoiceWait(float64(L.CheckNumber(1)))
			return 0
		},
		"voices_end_and_save_to_slot": func(L *lua.LState) int {
			id, err := s.EndAndSaveToSlot(L.CheckInt(1), float64(L.OptNumber(2, 1)))
			return pushID(L, id, err)
		},
		"voices_end_and_play": func(L *lua.LState) int {
			return pushErr(L, s.EndAndPlay())
		},
		"voices_end_and_save_to_wav": func(L *lua.LState) int {
			return pushErr(L, s.EndAndSaveToWAV(L.CheckString(1)))
		},
		"sound_load": func(L *lua.LState) int {
			id, err := s.LoadSoundFile(L.CheckString(1))
			return pushID(L, id, err)
		},
		"sound_play": func(L *lua.LState) int {
			return pushErr(L, s.PlaySound(uint32(L.CheckInt(1)), float64(L.OptNumber(2, 1)), float64(L.OptNumber(3, 0))))
		},
		"slot_play": func(L *lua.LState) int {
			id, ok := s.Slot(L.CheckInt(1))
			if !ok {
				return pushErr(L, ErrNotFound)
			}
			return pushErr(L, s.PlaySound(id, float64(L.OptNumber(2, 1)), float64(L.OptNumber(3, 0))))
		},
		"music_load": func(L *lua.LState) int {
			id, err := s.LoadMusicString(L.CheckString(1))
			return pushID(L, id, err)
		},
		"music_play": func(L *lua.LState) int {
			return pushErr(L, s.PlayMusic(uint32(L.CheckInt(1)), float64(L.OptNumber(2, 1)), float64(L.OptNumber(3, 0))))
		},
		"script_load": func(L *lua.LState) int {
			return pushErr(L, s.LoadScript(L.CheckString(1), L.CheckString(2)))
		},
		"script_play": func(L *lua.LState) int {
			return pushErr(L, s.PlayScript(L.CheckString(1), float64(L.OptNumber(2, 120))))
		},
		"script_stop": func(L *lua.LState) int {
			s.StopScript()
			return 0
		},
	}
	opts := []luabind.Option{luabind.WithLogger(s.log)}
	for name, fn := range procs {
		opts = append(opts, luabind.WithProc(name, fn))
	}
	return luabind.New(s.ctrl, opts...)
}

// pushID returns id, or 0 and the error message, Lua style.
func pushID(L *lua.LState, id uint32, err error) int {
	if err != nil {
		L.Push(lua.LNumber(0))
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LNumber(id))
	return 1
}

// pushErr returns true, or false and the error message.
func pushErr(L *lua.LState, err error) int {
	if err != nil {
		L.Push(lua.LFalse)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LTrue)
	return 1
}
