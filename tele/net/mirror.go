package telenet

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/juju/errors"
	"github.com/temoto/alive/v2"

	"github.com/avionics-lab/simbridge/helpers"
	"github.com/avionics-lab/simbridge/log2"
	"github.com/avionics-lab/simbridge/tele"
	tele_config "github.com/avionics-lab/simbridge/tele/config"
)

const (
	defaultMirrorPrefix   = "simbridge"
	defaultNetworkTimeout = 5 * time.Second
)

// Mirror receives copy of every sent frame. Publish must not block.
type Mirror interface {
	Publish(topic tele.Topic, frame []byte)
	Close()
}

func MirrorTopic(prefix string, topic tele.Topic) string {
	if prefix == "" {
		prefix = defaultMirrorPrefix
	}
	return fmt.Sprintf("%s/%s", prefix, topic.Hex())
}

// mqttMirror publishes frames QoS 0 without waiting for token,
// frames are dropped while broker is not connected.
type mqttMirror struct {
	alive  *alive.Alive
	log    *log2.Log
	m      mqtt.Client
	mopt   *mqtt.ClientOptions
	prefix string
}

func NewMqttMirror(log *log2.Log, config tele_config.MirrorConfig) (Mirror, error) {
	if config.MqttBroker == "" {
		return nil, errors.NotValidf("mirror mqtt_broker empty")
	}
	log = log.Named("mirror")
	mqttLog := log.Clone(log2.LDebug)
	mqtt.CRITICAL = mqttLog
	mqtt.ERROR = mqttLog
	mqtt.WARN = mqttLog
	if config.MqttLogDebug {
		mqtt.DEBUG = mqttLog
	}

	clientId := config.MqttClientId
	if clientId == "" {
		clientId = defaultMirrorPrefix
	}
	networkTimeout := helpers.IntSecondDefault(config.NetworkTimeoutSec, defaultNetworkTimeout)
	mm := &mqttMirror{
		alive:  alive.NewAlive(),
		log:    log,
		prefix: config.TopicPrefix,
	}
	mm.mopt = mqtt.NewClientOptions().
		AddBroker(config.MqttBroker).
		SetAutoReconnect(true).
		SetCleanSession(true).
		SetClientID(clientId).
		SetConnectTimeout(networkTimeout).
		SetKeepAlive(networkTimeout * 2).
		SetMaxReconnectInterval(networkTimeout * 3).
		SetOrderMatters(false).
		SetPingTimeout(networkTimeout).
		SetWriteTimeout(networkTimeout)
	if config.MqttUsername != "" {
		mm.mopt.SetUsername(config.MqttUsername)
		mm.mopt.SetPassword(config.MqttPassword)
	}
	mm.m = mqtt.NewClient(mm.mopt)

	if !mm.alive.Add(1) {
		return nil, errors.New("code error mirror alive")
	}
	go mm.online()
	return mm, nil
}

func (mm *mqttMirror) Publish(topic tele.Topic, frame []byte) {
	if !mm.m.IsConnected() {
		return
	}
	_ = mm.m.Publish(MirrorTopic(mm.prefix, topic), 0, false, frame)
}

func (mm *mqttMirror) Close() {
	mm.alive.Stop()
	mm.alive.Wait()
	mm.m.Disconnect(uint(mm.mopt.PingTimeout / time.Millisecond))
}

func (mm *mqttMirror) online() {
	defer mm.alive.Done()
	for mm.alive.IsRunning() {
		t := mm.m.Connect()
		if mm.tokenWait(t, "connect") == nil {
			mm.log.Infof("connected broker")
			return // success path, reconnects are automatic after this
		}
		if !helpers.SleepAlive(mm.alive, time.Second) {
			return
		}
	}
}

func (mm *mqttMirror) tokenWait(t mqtt.Token, tag string) error {
	if !t.WaitTimeout(mm.mopt.ConnectTimeout) {
		err := errors.Errorf("%s timeout", tag)
		mm.log.Errorf("MQTT %s", err.Error())
		return err
	}
	if err := t.Error(); err != nil {
		err = errors.Annotate(err, tag)
		mm.log.Errorf("MQTT %s", err.Error())
		return err
	}
	return nil
}
