package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"resume-skill-extractor/internal/config"
)

// ResumeUploadedEvent 简历上传事件载荷
type ResumeUploadedEvent struct {
	CandidateID      string    `json:"candidate_id"`
	ObjectPath       string    `json:"object_path"`
	OriginalFilename string    `json:"original_filename"`
	SourceMD5        string    `json:"source_md5"`
	UploadedAt       time.Time `json:"uploaded_at"`
}

// RabbitMQ 上传事件队列
type RabbitMQ struct {
	conn         *amqp.Connection
	channelPool  sync.Pool
	topologyOnce sync.Once
	topologyErr  error
	publishMutex sync.Mutex
	cfg          *config.RabbitMQConfig
}

// NewRabbitMQ 创建RabbitMQ客户端
func NewRabbitMQ(cfg *config.RabbitMQConfig) (*RabbitMQ, error) {
	if cfg == nil {
		return nil, fmt.Errorf("RabbitMQ配置不能为空")
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("RabbitMQ URL配置不能为空")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("无法连接到RabbitMQ服务器 (%s): %w", cfg.URL, err)
	}

	mq := &RabbitMQ{conn: conn, cfg: cfg}
	mq.channelPool = sync.Pool{
		New: func() interface{} {
			ch, poolErr := conn.Channel()
			if poolErr != nil {
				log.Printf("创建RabbitMQ通道失败: %v", poolErr)
				return nil
			}
			return ch
		},
	}

	if err := mq.ensureTopology(); err != nil {
		conn.Close()
		return nil, err
	}
	return mq, nil
}

func (r *RabbitMQ) getChannel() *amqp.Channel {
	ch := r.channelPool.Get()
	if ch == nil {
		newCh, err := r.conn.Channel()
		if err != nil {
			log.Printf("创建新RabbitMQ通道失败: %v", err)
			return nil
		}
		return newCh
	}
	return ch.(*amqp.Channel)
}

func (r *RabbitMQ) putChannel(ch *amqp.Channel) {
	if ch != nil {
		r.channelPool.Put(ch)
	}
}

// Close 关闭连接
func (r *RabbitMQ) Close() error {
	return r.conn.Close()
}

// ensureTopology 声明上传事件的交换机、队列与绑定
func (r *RabbitMQ) ensureTopology() error {
	r.topologyOnce.Do(func() {
		ch := r.getChannel()
		if ch == nil {
			r.topologyErr = fmt.Errorf("无法获取RabbitMQ通道")
			return
		}
		defer r.putChannel(ch)

		if err := ch.ExchangeDeclare(r.cfg.UploadExchange, "direct", true, false, false, false, nil); err != nil {
			r.topologyErr = fmt.Errorf("声明exchange失败: %w", err)
			return
		}
		if _, err := ch.QueueDeclare(r.cfg.RawResumeQueue, true, false, false, false, nil); err != nil {
			r.topologyErr = fmt.Errorf("声明队列失败: %w", err)
			return
		}
		if err := ch.QueueBind(r.cfg.RawResumeQueue, r.cfg.UploadedRoutingKey, r.cfg.UploadExchange, false, nil); err != nil {
			r.topologyErr = fmt.Errorf("绑定队列失败: %w", err)
			return
		}
	})
	return r.topologyErr
}

// PublishUploadEvent 发布上传事件，持久化投递
func (r *RabbitMQ) PublishUploadEvent(ctx context.Context, event *ResumeUploadedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化上传事件失败: %w", err)
	}

	r.publishMutex.Lock()
	defer r.publishMutex.Unlock()

	ch := r.getChannel()
	if ch == nil {
		return fmt.Errorf("无法获取RabbitMQ通道")
	}
	defer r.putChannel(ch)

	return ch.PublishWithContext(
		ctx,
		r.cfg.UploadExchange,
		r.cfg.UploadedRoutingKey,
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
}

// StartUploadConsumer 启动上传事件消费者
// handler返回true表示处理成功并Ack，返回false则Nack并重新入队
func (r *RabbitMQ) StartUploadConsumer(handler func(event *ResumeUploadedEvent) bool) (chan<- struct{}, error) {
	stopCh := make(chan struct{})

	ch := r.getChannel()
	if ch == nil {
		return nil, fmt.Errorf("无法获取RabbitMQ通道")
	}

	prefetch := r.cfg.PrefetchCount
	if prefetch <= 0 {
		prefetch = 5
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		r.putChannel(ch)
		return nil, fmt.Errorf("设置QoS失败: %w", err)
	}

	deliveries, err := ch.Consume(r.cfg.RawResumeQueue, "", false, false, false, false, nil)
	if err != nil {
		r.putChannel(ch)
		return nil, fmt.Errorf("注册消费者失败: %w", err)
	}

	go func() {
		defer r.putChannel(ch)
		log.Printf("上传事件消费者已启动，队列: %s, 预取数量: %d", r.cfg.RawResumeQueue, prefetch)

		for {
			select {
			case <-stopCh:
				return
			case delivery, ok := <-deliveries:
				if !ok {
					log.Println("RabbitMQ通道已关闭")
					return
				}

				var event ResumeUploadedEvent
				if err := json.Unmarshal(delivery.Body, &event); err != nil {
					// 载荷损坏，重试也无济于事，直接丢弃
					log.Printf("解析上传事件失败，丢弃消息: %v", err)
					if err := delivery.Nack(false, false); err != nil {
						log.Printf("拒绝消息失败: %v", err)
					}
					continue
				}

				if handler(&event) {
					if err := delivery.Ack(false); err != nil {
						log.Printf("确认消息失败: %v", err)
					}
				} else {
					if err := delivery.Nack(false, true); err != nil {
						log.Printf("拒绝消息失败: %v", err)
					}
				}
			}
		}
	}()

	return stopCh, nil
}
