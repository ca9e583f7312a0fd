package mq_client

type Exchange struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type Queue struct {
	Name    string `yaml:"name"`
	Durable bool   `yaml:"durable"`
}

type Binding struct {
	Queue      string `yaml:"queue"`
	CleanStart bool   `yaml:"clean_start"`
	Exchange   string `yaml:"exchange"`
}

type Channel struct {
	Prefetch int `yaml:"prefetch"`
}

type MQClientConfig struct {
	Exchange struct {
		Events       Exchange `yaml:"events"`
		Notification Exchange `yaml:"notification"`
	} `yaml:"exchange"`
	Queue struct {
		EventsProcessor Queue `yaml:"events_processor"`
		ExecutionLog    Queue `yaml:"execution_log"`
		Performance     Queue `yaml:"performance"`
	} `yaml:"queue"`
	Binding struct {
		EventsProcessor Binding `yaml:"events_processor"`
		ExecutionLog    Binding `yaml:"execution_log"`
		Performance     Binding `yaml:"performance"`
	} `yaml:"binding"`
	Channel struct {
		EventsProcessor Channel `yaml:"events_processor"`
		Performance     Channel `yaml:"performance"`
	} `yaml:"channel"`
}
