package app

import (
	"fmt"
	"log"
	"time"

	chassis "github.com/Speshl/gorrc_tracker/internal/mecanum"
	"github.com/Speshl/gorrc_tracker/internal/models"
	socketio "github.com/googollee/go-socket.io"
)

func (a *App) RegisterHandlers() error {
	if a.client == nil {
		log.Println("remote disabled, skipping handlers")
		return nil
	}

	log.Println("registering handlers")
	a.client.OnEvent("reply", func(s socketio.Conn, msg string) {
		log.Println("Receive Message /reply: ", "reply", msg)
	})

	a.client.OnEvent("register_success", func(s socketio.Conn, msg string) {
		err := a.onRegisterSuccess(msg)
		if err != nil {
			log.Printf("register success from %s failed: %s\n", s.ID(), err.Error())
		}
	})

	a.client.OnEvent("tracker_start", func(s socketio.Conn, msg string) {
		a.onTrackerStart()
	})

	a.client.OnEvent("tracker_stop", func(s socketio.Conn, msg string) {
		a.onTrackerStop()
	})

	a.client.OnEvent("tracker_move", func(s socketio.Conn, msg string) {
		err := a.onTrackerMove(msg)
		if err != nil {
			log.Printf("move from %s failed: %s\n", s.ID(), err.Error())
		}
	})

	a.client.OnEvent("detection", func(s socketio.Conn, msg string) {
		err := a.onDetection(msg)
		if err != nil {
			log.Printf("detection from %s failed: %s\n", s.ID(), err.Error())
		}
	})

	log.Println("attemping to connect to server...")
	err := a.client.Connect() //Client must have atleast 1 event handler to work
	if err != nil {
		return fmt.Errorf("error connecting to server - %w", err)
	}
	log.Println("connected to server")
	return nil
}

func (a *App) onRegisterSuccess(msg string) error {
	decodedMsg := models.ConnectResp{}
	err := decode(msg, &decodedMsg)
	if err != nil {
		return fmt.Errorf("failed unmarshaling: %w - msg - %s", err, msg)
	}

	a.lock.Lock()
	a.robotInfo = decodedMsg.Robot
	a.lock.Unlock()
	log.Printf("robot connected as %s(%s)\n", decodedMsg.Robot.Name, decodedMsg.Robot.ShortName)
	return nil
}

func (a *App) onTrackerStart() {
	a.robot.Resume()
}

func (a *App) onTrackerStop() {
	a.robot.Pause()
}

func (a *App) onTrackerMove(msg string) error {
	req := models.MoveReq{}
	err := decode(msg, &req)
	if err != nil {
		return fmt.Errorf("failed unmarshaling move: %w", err)
	}

	seq, err := chassis.Move(req.Profile, req.Speed, req.Yaw, time.Duration(req.DurationMs)*time.Millisecond)
	if err != nil {
		return err
	}
	a.robot.Move(seq)
	return nil
}

func (a *App) onDetection(msg string) error {
	frame := models.Frame{}
	err := decode(msg, &frame)
	if err != nil {
		return fmt.Errorf("failed unmarshaling frame: %w", err)
	}
	a.feed.Push(frame)
	return nil
}
